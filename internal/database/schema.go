package database

import (
	"context"
	"fmt"
	"time"
)

// Both tables key on the natural identity so REPLACE INTO gives replace
// semantics. There are no foreign keys: removing a directory purges its
// photos explicitly.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS dirs (
		user_path TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		parent_user_path TEXT,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		thumb_20_url TEXT NOT NULL,
		thumb_100_url TEXT NOT NULL,
		thumb_250_url TEXT NOT NULL,
		thumb_500_url TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		aspect_ratio REAL NOT NULL,
		created_time TEXT,
		modified_time TEXT NOT NULL,
		num_subdirs INTEGER NOT NULL DEFAULT 0,
		num_photos INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dirs_parent ON dirs(parent_user_path)`,
	`CREATE TABLE IF NOT EXISTS photos (
		user_path TEXT NOT NULL,
		filename TEXT NOT NULL,
		path TEXT NOT NULL,
		url TEXT NOT NULL,
		thumb_20_url TEXT NOT NULL,
		thumb_100_url TEXT NOT NULL,
		thumb_250_url TEXT NOT NULL,
		thumb_500_url TEXT NOT NULL,
		created_time TEXT,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		aspect_ratio REAL NOT NULL,
		size INTEGER NOT NULL,
		modified_time TEXT NOT NULL,
		exif_fstop TEXT,
		exif_focal_length TEXT,
		exif_iso TEXT,
		exif_shutter_speed TEXT,
		exif_camera TEXT,
		exif_lens TEXT,
		exif_gps_lat REAL,
		exif_gps_lon REAL,
		exif_gps_alt_ft REAL,
		PRIMARY KEY (user_path, filename)
	)`,
	`CREATE TABLE IF NOT EXISTS index_metadata (
		meta_key TEXT PRIMARY KEY,
		meta_value TEXT
	)`,
}

// MySQL needs bounded key columns; (512+255) utf8mb4 characters stay under
// the 3072 byte InnoDB key limit.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS dirs (
		user_path VARCHAR(512) NOT NULL,
		path TEXT NOT NULL,
		parent_user_path VARCHAR(512) NULL,
		name VARCHAR(255) NOT NULL,
		url TEXT NOT NULL,
		thumb_20_url TEXT NOT NULL,
		thumb_100_url TEXT NOT NULL,
		thumb_250_url TEXT NOT NULL,
		thumb_500_url TEXT NOT NULL,
		width INT NOT NULL,
		height INT NOT NULL,
		aspect_ratio DOUBLE NOT NULL,
		created_time DATETIME NULL,
		modified_time DATETIME NOT NULL,
		num_subdirs INT NOT NULL DEFAULT 0,
		num_photos INT NOT NULL DEFAULT 0,
		PRIMARY KEY (user_path),
		INDEX idx_dirs_parent (parent_user_path)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS photos (
		user_path VARCHAR(512) NOT NULL,
		filename VARCHAR(255) NOT NULL,
		path TEXT NOT NULL,
		url TEXT NOT NULL,
		thumb_20_url TEXT NOT NULL,
		thumb_100_url TEXT NOT NULL,
		thumb_250_url TEXT NOT NULL,
		thumb_500_url TEXT NOT NULL,
		created_time DATETIME NULL,
		width INT NOT NULL,
		height INT NOT NULL,
		aspect_ratio DOUBLE NOT NULL,
		size BIGINT NOT NULL,
		modified_time DATETIME NOT NULL,
		exif_fstop VARCHAR(32) NULL,
		exif_focal_length VARCHAR(32) NULL,
		exif_iso VARCHAR(32) NULL,
		exif_shutter_speed VARCHAR(32) NULL,
		exif_camera VARCHAR(255) NULL,
		exif_lens VARCHAR(255) NULL,
		exif_gps_lat DOUBLE NULL,
		exif_gps_lon DOUBLE NULL,
		exif_gps_alt_ft DOUBLE NULL,
		PRIMARY KEY (user_path, filename)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS index_metadata (
		meta_key VARCHAR(191) NOT NULL PRIMARY KEY,
		meta_value TEXT
	) DEFAULT CHARSET=utf8mb4`,
}

func (d *Database) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := sqliteSchema
	if d.driver == DriverMySQL {
		schema = mysqlSchema
	}

	// One statement per Exec: the MySQL driver rejects multi-statement strings
	// unless multiStatements is enabled.
	for _, stmt := range schema {
		if _, err = d.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
