package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"photo-index/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Database drivers and lock backends accepted in configuration.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"

	LockFile  = "file"
	LockRedis = "redis"
	LockNone  = "none"
)

// Config holds all indexer configuration
type Config struct {
	PhotosRoot string

	DatabaseDriver string
	DatabaseDir    string
	DatabaseDSN    string
	DBHost         string
	DBUser         string
	DBName         string
	DBPassword     string

	PhotoURLRoot    string
	DirURLRoot      string
	DefaultThumbURL string

	Workers     int
	ReadRate    float64
	RefreshDirs bool

	LockBackend   string
	LockDir       string
	LockTTL       time.Duration
	RedisAddr     string
	RedisPassword string

	MetricsFile string

	// Derived paths
	DatabasePath string
}

// LoadDotEnv loads variables from path without overriding ones already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logging.Debug("Loaded environment from %s", path)
	return nil
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	if err := LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		PhotosRoot:      getEnv("PHOTOS_ROOT", "/photos"),
		DatabaseDriver:  getEnv("DATABASE_DRIVER", DriverSQLite),
		DatabaseDir:     getEnv("DATABASE_DIR", "/database"),
		DatabaseDSN:     os.Getenv("DATABASE_DSN"),
		DBHost:          os.Getenv("DB_HOST"),
		DBUser:          os.Getenv("DB_USER"),
		DBName:          os.Getenv("DB_NAME"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		PhotoURLRoot:    getEnv("PHOTO_URL_ROOT", "/photo"),
		DirURLRoot:      getEnv("DIR_URL_ROOT", "/photos"),
		DefaultThumbURL: getEnv("DEFAULT_THUMB_URL", "/static/default_thumbnails"),
		Workers:         getEnvInt("INDEX_WORKERS", 0),
		ReadRate:        getEnvFloat("INDEX_READ_RATE", 0),
		RefreshDirs:     getEnvBool("INDEX_REFRESH_DIRS", false),
		LockBackend:     getEnv("LOCK_BACKEND", LockFile),
		LockDir:         os.Getenv("LOCK_DIR"),
		LockTTL:         getEnvDuration("LOCK_TTL", 30*time.Second),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		MetricsFile:     os.Getenv("METRICS_FILE"),
	}

	logging.Info("  PHOTOS_ROOT:        %s", config.PhotosRoot)
	logging.Info("  DATABASE_DRIVER:    %s", config.DatabaseDriver)
	if config.DatabaseDriver == DriverMySQL {
		logging.Info("  DB_HOST:            %s", config.DBHost)
		logging.Info("  DB_USER:            %s", config.DBUser)
		logging.Info("  DB_NAME:            %s", config.DBName)
		logging.Info("  DATABASE_DSN:       %s", setString(config.DatabaseDSN))
	} else {
		logging.Info("  DATABASE_DIR:       %s", config.DatabaseDir)
	}
	logging.Info("  PHOTO_URL_ROOT:     %s", config.PhotoURLRoot)
	logging.Info("  DIR_URL_ROOT:       %s", config.DirURLRoot)
	logging.Info("  DEFAULT_THUMB_URL:  %s", config.DefaultThumbURL)
	logging.Info("  INDEX_WORKERS:      %s", autoString(config.Workers))
	logging.Info("  INDEX_READ_RATE:    %s", rateString(config.ReadRate))
	logging.Info("  INDEX_REFRESH_DIRS: %s", enabledString(config.RefreshDirs))
	logging.Info("  LOCK_BACKEND:       %s", config.LockBackend)
	logging.Info("  METRICS_FILE:       %s", setString(config.MetricsFile))
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks option values and resolves paths. It is called by
// LoadConfig and again after command-line overrides are applied.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want %s or %s)", c.DatabaseDriver, DriverSQLite, DriverMySQL)
	}

	switch c.LockBackend {
	case LockFile, LockRedis, LockNone:
	default:
		return fmt.Errorf("unsupported LOCK_BACKEND %q (want %s, %s or %s)", c.LockBackend, LockFile, LockRedis, LockNone)
	}

	if c.Workers < 0 {
		return fmt.Errorf("INDEX_WORKERS must not be negative, got %d", c.Workers)
	}
	if c.ReadRate < 0 {
		return fmt.Errorf("INDEX_READ_RATE must not be negative, got %v", c.ReadRate)
	}

	root, err := filepath.Abs(c.PhotosRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve photos root path: %w", err)
	}
	c.PhotosRoot = root

	c.DatabasePath = ""
	if c.DatabaseDriver == DriverSQLite {
		dir, err := filepath.Abs(c.DatabaseDir)
		if err != nil {
			return fmt.Errorf("failed to resolve database directory path: %w", err)
		}
		c.DatabaseDir = dir
		c.DatabasePath = filepath.Join(dir, "photos.db")
	}

	if c.LockDir == "" {
		c.LockDir = c.DatabaseDir
		if c.DatabaseDriver != DriverSQLite {
			c.LockDir = os.TempDir()
		}
	}

	return nil
}

// PrepareDirectories creates the database and lock directories when they are
// needed and checks that they are writable.
func (c *Config) PrepareDirectories() error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := ensureDirectory(c.PhotosRoot, "photos"); err != nil {
		return fmt.Errorf("photos root error: %w", err)
	}
	logging.Info("  Photos root (absolute): %s", c.PhotosRoot)

	if c.DatabaseDriver == DriverSQLite {
		if err := ensureDirectory(c.DatabaseDir, "database"); err != nil {
			return fmt.Errorf("database directory error: %w", err)
		}
		logging.Debug("  Testing database directory write access...")
		if err := testWriteAccess(c.DatabaseDir); err != nil {
			return fmt.Errorf("database directory is not writable (required for database): %w", err)
		}
		logging.Info("  [OK] Database directory is writable")
	}

	if c.LockBackend == LockFile {
		if err := ensureDirectory(c.LockDir, "lock"); err != nil {
			return fmt.Errorf("lock directory error: %w", err)
		}
		if err := testWriteAccess(c.LockDir); err != nil {
			return fmt.Errorf("lock directory is not writable: %w", err)
		}
		logging.Info("  [OK] Lock directory is writable: %s", c.LockDir)
	}

	return nil
}

func setString(v string) string {
	if v == "" {
		return "(not set)"
	}
	return "(set)"
}

func autoString(n int) string {
	if n <= 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

func rateString(r float64) string {
	if r <= 0 {
		return "unlimited"
	}
	return strconv.FormatFloat(r, 'f', -1, 64) + " files/s"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(driver string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] %s database initialized in %v", driver, duration)
}

// LogLockInit logs which lock backend guards the run
func LogLockInit(backend, detail string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LOCKING")
	logging.Info("------------------------------------------------------------")
	if backend == LockNone {
		logging.Warn("  Locking disabled: concurrent runs on the same root are unsafe")
		return
	}
	logging.Info("  Backend: %s (%s)", backend, detail)
}

// RunInfo describes a reconciliation run for the startup log
type RunInfo struct {
	Target      string
	Root        string
	DryRun      bool
	Force       bool
	RefreshDirs bool
}

// LogRunStart logs the reconciliation parameters
func LogRunStart(info RunInfo) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("RECONCILIATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Target:        %s", info.Target)
	logging.Info("  Root:          %s", info.Root)
	if info.DryRun {
		logging.Info("  Mode:          DRY RUN (pass --for-real to commit)")
	} else {
		logging.Info("  Mode:          COMMIT")
	}
	logging.Info("  Force:         %s", enabledString(info.Force))
	logging.Info("  Refresh dirs:  %s", enabledString(info.RefreshDirs))
}

// RunSummary is the outcome of a reconciliation run for the startup log
type RunSummary struct {
	RunID           string
	Duration        time.Duration
	DirsAdded       int
	DirsRemoved     int
	DirsRefreshed   int
	PhotosAdded     int
	PhotosReindexed int
	PhotosRemoved   int
	Skipped         []string
}

// LogRunSummary logs the result of a reconciliation run
func LogRunSummary(s RunSummary) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SUMMARY (run %s)", s.RunID)
	logging.Info("------------------------------------------------------------")
	logging.Info("  Duration:            %v", s.Duration)
	logging.Info("  Directories added:   %d", s.DirsAdded)
	logging.Info("  Directories removed: %d", s.DirsRemoved)
	logging.Info("  Directories updated: %d", s.DirsRefreshed)
	logging.Info("  Photos added:        %d", s.PhotosAdded)
	logging.Info("  Photos reindexed:    %d", s.PhotosReindexed)
	logging.Info("  Photos removed:      %d", s.PhotosRemoved)
	if len(s.Skipped) == 0 {
		logging.Info("  [OK] No files skipped")
		return
	}
	logging.Warn("  Skipped files:       %d", len(s.Skipped))
	for _, path := range s.Skipped {
		logging.Warn("    %s", path)
	}
}

// LogShutdownInitiated logs an interrupted run
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
	logging.Info("  Finishing the current directory...")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// printBanner writes to stderr: stdout carries the dry-run plan.
func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __           ____          __
   / __ \/ /_  ____  / /_____     /  _/___  ____/ /__  _  __
  / /_/ / __ \/ __ \/ __/ __ \    / // __ \/ __  / _ \| |/_/
 / ____/ / / / /_/ / /_/ /_/ /  _/ // / / / /_/ /  __/>  <
/_/   /_/ /_/\____/\__/\____/  /___/_/ /_/\__,_/\___/_/|_|

------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// ensureDirectory creates path if needed. The photos root is never created:
// a missing root means a missing mount, not an empty library.
func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if name == "photos" {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
