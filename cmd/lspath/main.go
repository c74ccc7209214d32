package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"photo-index/internal/database"
	"photo-index/internal/startup"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	command := os.Args[1]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := startup.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	db, err := database.New(ctx, databaseOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	ok := true
	switch command {
	case "ls":
		userPath := "/"
		if len(os.Args) > 2 {
			userPath = os.Args[2]
		}
		ok = listPath(ctx, db, userPath, os.Stdout)
	case "status":
		ok = showStatus(ctx, db, os.Stdout)
	case "show":
		if len(os.Args) < 3 || len(os.Args) > 4 {
			fmt.Fprintln(os.Stderr, "Usage: lspath show PATH [FILENAME]")
			ok = false
			break
		}
		filename := ""
		if len(os.Args) == 4 {
			filename = os.Args[3]
		}
		ok = showRecord(ctx, db, os.Args[2], filename, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n", command)
		printUsage(os.Stderr)
		ok = false
	}
	if !ok {
		cancel()
		os.Exit(1)
	}
}

// databaseOptions reads the same variables as the indexer.
func databaseOptions() database.Options {
	opts := database.Options{
		Driver:   os.Getenv("DATABASE_DRIVER"),
		DSN:      os.Getenv("DATABASE_DSN"),
		Host:     os.Getenv("DB_HOST"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
	}
	if opts.Driver == "" {
		opts.Driver = database.DriverSQLite
	}
	if opts.Driver == database.DriverSQLite {
		dir := os.Getenv("DATABASE_DIR")
		if dir == "" {
			dir = defaultDatabaseDir
		}
		opts.Path = filepath.Join(dir, "photos.db")
	}
	return opts
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Photo Index Inspector")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: lspath <command> [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  ls [PATH]  - Print the gallery contents of a canonical path as JSON (default: /)")
	fmt.Fprintln(w, "  status     - Show library totals and the last committed run")
	fmt.Fprintln(w, "  show PATH [FILENAME] - Print the stored directory or photo record as JSON")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  DATABASE_DRIVER - sqlite3 or mysql (default: sqlite3)")
	fmt.Fprintf(w, "  DATABASE_DIR    - Path to database directory (default: %s)\n", defaultDatabaseDir)
	fmt.Fprintln(w, "  DATABASE_DSN, DB_HOST, DB_USER, DB_NAME, DB_PASSWORD - MySQL connection")
}

func listPath(ctx context.Context, db *database.Database, userPath string, out io.Writer) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	contents, err := db.GetPathContents(ctx, userPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read %s: %v\n", userPath, err)
		return false
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(contents); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to encode contents: %v\n", err)
		return false
	}
	return true
}

// showRecord prints one row as stored, without the gallery shaping of ls.
func showRecord(ctx context.Context, db *database.Database, userPath, filename string, out io.Writer) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		record any
		err    error
		what   = userPath
	)
	if filename == "" {
		record, err = db.GetDirectory(ctx, userPath)
	} else {
		what = userPath + " " + filename
		record, err = db.GetPhoto(ctx, userPath, filename)
	}
	if errors.Is(err, sql.ErrNoRows) {
		fmt.Fprintf(os.Stderr, "Error: %s is not indexed\n", what)
		return false
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read %s: %v\n", what, err)
		return false
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to encode record: %v\n", err)
		return false
	}
	return true
}

func showStatus(ctx context.Context, db *database.Database, out io.Writer) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats, err := db.LibraryStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read library stats: %v\n", err)
		return false
	}
	fmt.Fprintf(out, "Directories: %d\n", stats.TotalDirectories)
	fmt.Fprintf(out, "Photos:      %d\n", stats.TotalPhotos)

	last, err := db.GetLastRun(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read last run: %v\n", err)
		return false
	}
	if last == nil {
		fmt.Fprintln(out, "Last run:    never")
		return true
	}
	fmt.Fprintf(out, "Last run:    %s (%s) on %s\n", last.RunID, last.FinishedAt.Format(time.RFC3339), last.Target)
	fmt.Fprintf(out, "  dirs +%d -%d, photos +%d -%d, %d skipped\n",
		last.DirsAdded, last.DirsRemoved, last.PhotosAdded, last.PhotosRemoved, last.Skipped)
	return true
}
