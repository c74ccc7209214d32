package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photo-index/internal/logging"
	"photo-index/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Supported drivers.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// Options selects and configures the relational store.
type Options struct {
	// Driver is DriverSQLite (default) or DriverMySQL.
	Driver string

	// Path is the sqlite database FILE. Its parent directory must exist.
	Path string

	// DSN is a go-sql-driver/mysql data source name. When empty one is built
	// from Host, User, Password and Name.
	DSN      string
	Host     string
	User     string
	Password string
	Name     string
}

// Database is the persistence gateway for the photo index.
type Database struct {
	db      *sql.DB
	driver  string
	target  string // file path or redacted DSN, for logging
	mu      sync.RWMutex
	txStart time.Time // Track transaction start time for metrics
}

// New opens the store described by opts and creates the schema if needed.
func New(ctx context.Context, opts Options) (*Database, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}

	var (
		connStr string
		target  string
	)

	switch opts.Driver {
	case DriverSQLite:
		if opts.Path == "" {
			return nil, errors.New("sqlite database path is required")
		}
		logging.Info("Database path: %s", opts.Path)

		// Diagnose potential permission issues
		if err := diagnoseDatabasePermissions(opts.Path); err != nil {
			logging.Warn("Database permission diagnostics: %v", err)
		}

		// busy_timeout helps prevent "database is locked" errors
		connStr = fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", opts.Path)
		target = opts.Path

	case DriverMySQL:
		dsn, err := MySQLDSN(opts)
		if err != nil {
			return nil, err
		}
		connStr = dsn
		target = redactDSN(dsn)
		logging.Info("Database DSN: %s", target)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sql.Open(opts.Driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// WAL lets readers proceed while a batch holds the write transaction
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		driver: opts.Driver,
		target: target,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully (%s)", opts.Driver)
	return d, nil
}

// MySQLDSN returns the DSN New uses for MySQL. An explicit DSN is parsed and
// re-encoded so that parseTime is always off: timestamps must come back as
// the same strings that were written.
func MySQLDSN(opts Options) (string, error) {
	var cfg *mysql.Config
	if opts.DSN != "" {
		parsed, err := mysql.ParseDSN(opts.DSN)
		if err != nil {
			return "", fmt.Errorf("invalid mysql DSN: %w", err)
		}
		cfg = parsed
	} else {
		if opts.Host == "" || opts.User == "" || opts.Name == "" {
			return "", errors.New("mysql requires a DSN or host, user and database name")
		}
		cfg = mysql.NewConfig()
		cfg.Net = "tcp"
		cfg.Addr = opts.Host
		cfg.User = opts.User
		cfg.Passwd = opts.Password
		cfg.DBName = opts.Name
	}
	cfg.ParseTime = false
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["charset"] = "utf8mb4"
	return cfg.FormatDSN(), nil
}

func redactDSN(dsn string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "<invalid dsn>"
	}
	if cfg.Passwd != "" {
		cfg.Passwd = "xxxxx"
	}
	return cfg.FormatDSN()
}

// Driver returns the name of the driver in use.
func (d *Database) Driver() string {
	return d.driver
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// BeginBatch starts a transaction for batch operations.
// The caller is responsible for calling EndBatch when done.
func (d *Database) BeginBatch() (*sql.Tx, error) {
	d.mu.Lock()
	txStart := time.Now()

	// Transaction lifetime is managed by EndBatch, not a timeout.
	tx, err := d.db.BeginTx(context.Background(), nil)
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}

	d.txStart = txStart

	return tx, nil
}

// EndBatch commits or rolls back a transaction.
func (d *Database) EndBatch(tx *sql.Tx, err error) error {
	duration := time.Since(d.txStart).Seconds()

	if err != nil {
		metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
		rbErr := tx.Rollback()
		if rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
	return tx.Commit()
}

// LibraryStats counts indexed directories and photos.
func (d *Database) LibraryStats(ctx context.Context) (metrics.Stats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("library_stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats metrics.Stats
	if err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dirs").Scan(&stats.TotalDirectories); err != nil {
		return stats, err
	}
	err = d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos").Scan(&stats.TotalPhotos)
	return stats, err
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

func recordRows(operation string, result sql.Result) {
	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		metrics.DBRowsAffected.WithLabelValues(operation).Observe(float64(rows))
	}
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Database file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		side := dbPath + suffix
		info, err := os.Stat(side)
		if err != nil {
			continue
		}
		if info.Mode().Perm()&0o200 == 0 {
			logging.Warn("%s is read-only! Mode: %v - this will cause write failures", side, info.Mode())
			if chmodErr := os.Chmod(side, 0o600); chmodErr != nil {
				logging.Error("Failed to fix %s permissions: %v", side, chmodErr)
			} else {
				logging.Info("Fixed %s permissions", side)
			}
		}
	}

	return nil
}
