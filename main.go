package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/term"

	"photo-index/internal/database"
	"photo-index/internal/filesystem"
	"photo-index/internal/indexer"
	"photo-index/internal/lock"
	"photo-index/internal/logging"
	"photo-index/internal/memory"
	"photo-index/internal/metrics"
	"photo-index/internal/resolver"
	"photo-index/internal/startup"
)

// Exit codes
const (
	exitOK             = 0
	exitFailure        = 1
	exitUsage          = 2
	exitTargetNotFound = 3
	exitLocked         = 4
)

type cliOptions struct {
	path           string
	root           string
	force          bool
	forReal        bool
	refreshDirs    bool
	dbDriver       string
	dbDSN          string
	passwordPrompt bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	defer logging.Sync()

	opts, err := parseFlags(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Error("Configuration error: %v", err)
		return exitFailure
	}
	if err := applyOverrides(config, opts); err != nil {
		logging.Error("Configuration error: %v", err)
		return exitUsage
	}
	if err := config.PrepareDirectories(); err != nil {
		logging.Error("Startup error: %v", err)
		return exitFailure
	}

	if opts.passwordPrompt && config.DatabaseDriver == startup.DriverMySQL {
		password, err := promptPassword(fmt.Sprintf("Password for %s@%s: ", config.DBUser, config.DBHost))
		if err != nil {
			logging.Error("Failed to read password: %v", err)
			return exitFailure
		}
		config.DBPassword = password
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			startup.LogShutdownInitiated(sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"photos":   config.PhotosRoot,
		"database": config.DatabaseDir,
	}))

	dbStart := time.Now()
	db, err := database.New(ctx, database.Options{
		Driver:   config.DatabaseDriver,
		Path:     config.DatabasePath,
		DSN:      config.DatabaseDSN,
		Host:     config.DBHost,
		User:     config.DBUser,
		Password: config.DBPassword,
		Name:     config.DBName,
	})
	if err != nil {
		logging.Error("Failed to initialize database: %v", err)
		return exitFailure
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(config.DatabaseDriver, time.Since(dbStart))

	locker, closeLocker, err := newLocker(config)
	if err != nil {
		logging.Error("Failed to initialize lock: %v", err)
		return exitFailure
	}
	defer closeLocker()

	res := resolver.New(config.PhotosRoot, resolver.Config{
		PhotoURLRoot:    config.PhotoURLRoot,
		DirURLRoot:      config.DirURLRoot,
		DefaultThumbURL: config.DefaultThumbURL,
	})

	target, err := filepath.Abs(opts.path)
	if err != nil {
		logging.Error("Invalid --path %q: %v", opts.path, err)
		return exitUsage
	}

	startup.LogRunStart(startup.RunInfo{
		Target:      target,
		Root:        config.PhotosRoot,
		DryRun:      !opts.forReal,
		Force:       opts.force,
		RefreshDirs: config.RefreshDirs,
	})

	var sink indexer.Sink = indexer.NewPlanSink(os.Stdout)
	if opts.forReal {
		sink = indexer.NewApplySink(db)
	}

	rec := indexer.New(db, res, locker, indexer.Options{
		Force:       opts.force,
		RefreshDirs: config.RefreshDirs,
		Workers:     config.Workers,
		ReadRate:    config.ReadRate,
		Memory:      memory.NewGuard(memory.DefaultConfig()),
	})
	result, runErr := rec.Run(ctx, target, sink)

	if runErr == nil {
		startup.LogRunSummary(summarize(result))
	}
	if opts.forReal {
		metrics.Collect(ctx, db)
	}
	if config.MetricsFile != "" {
		if err := metrics.WriteTextfile(config.MetricsFile); err != nil {
			logging.Warn("Failed to write metrics to %s: %v", config.MetricsFile, err)
		}
	}

	if runErr != nil {
		logging.Error("Indexing failed: %v", runErr)
	}
	return exitCode(runErr)
}

func parseFlags(args []string, output io.Writer) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("photo-index", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.path, "path", "", "directory to reconcile (required)")
	fs.StringVar(&opts.root, "root", "", "index root, overrides PHOTOS_ROOT")
	fs.BoolVar(&opts.force, "force", false, "rebuild every directory and photo under --path")
	fs.BoolVar(&opts.forReal, "for-real", false, "commit changes; without it the planned writes are printed")
	fs.BoolVar(&opts.refreshDirs, "refresh-dirs", false, "rewrite directory rows whose photos or children changed")
	fs.StringVar(&opts.dbDriver, "db-driver", "", "database driver, overrides DATABASE_DRIVER")
	fs.StringVar(&opts.dbDSN, "db-dsn", "", "MySQL DSN, overrides DATABASE_DSN")
	fs.BoolVar(&opts.passwordPrompt, "password-prompt", false, "prompt for the MySQL password")
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: photo-index --path DIR [options]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.path == "" {
		return nil, errors.New("--path is required")
	}
	return opts, nil
}

// applyOverrides folds command-line options into config and revalidates it.
func applyOverrides(config *startup.Config, opts *cliOptions) error {
	if opts.root != "" {
		config.PhotosRoot = opts.root
	}
	if opts.dbDriver != "" {
		config.DatabaseDriver = opts.dbDriver
	}
	if opts.dbDSN != "" {
		config.DatabaseDSN = opts.dbDSN
	}
	if opts.refreshDirs {
		config.RefreshDirs = true
	}
	return config.Validate()
}

func newLocker(config *startup.Config) (lock.Locker, func(), error) {
	switch config.LockBackend {
	case startup.LockNone:
		startup.LogLockInit(startup.LockNone, "")
		return lock.Noop{}, func() {}, nil
	case startup.LockRedis:
		client := lock.NewRedisClient(config.RedisAddr, config.RedisPassword)
		startup.LogLockInit(startup.LockRedis, fmt.Sprintf("%s, ttl %v", config.RedisAddr, config.LockTTL))
		closeFn := func() {
			if err := client.Close(); err != nil {
				logging.Warn("Failed to close redis client: %v", err)
			}
		}
		return lock.NewRedisLocker(client, config.LockTTL), closeFn, nil
	case startup.LockFile:
		startup.LogLockInit(startup.LockFile, config.LockDir)
		return lock.NewFileLocker(config.LockDir), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported lock backend %q", config.LockBackend)
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, indexer.ErrTargetNotFound), errors.Is(err, indexer.ErrOutsideRoot):
		return exitTargetNotFound
	case errors.Is(err, lock.ErrLocked):
		return exitLocked
	default:
		return exitFailure
	}
}

func summarize(result *indexer.Result) startup.RunSummary {
	skipped := make([]string, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		skipped = append(skipped, fmt.Sprintf("%s (%s)", s.Path, s.Reason))
	}
	return startup.RunSummary{
		RunID:           result.RunID,
		Duration:        result.Duration,
		DirsAdded:       result.DirsAdded,
		DirsRemoved:     result.DirsRemoved,
		DirsRefreshed:   result.DirsRefreshed,
		PhotosAdded:     result.PhotosAdded,
		PhotosReindexed: result.PhotosReindexed,
		PhotosRemoved:   result.PhotosRemoved,
		Skipped:         skipped,
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}
