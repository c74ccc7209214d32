// Package startup loads the indexer configuration and writes the sectioned
// startup and summary log.
//
// # Configuration
//
// [LoadConfig] reads the environment, after merging an optional dotenv file
// (ENV_FILE, default .env) that never overrides variables already set:
//
//   - PHOTOS_ROOT: Index root, the directory served as "/" (default: /photos)
//   - DATABASE_DRIVER: sqlite3 or mysql (default: sqlite3)
//   - DATABASE_DIR: Directory holding photos.db for sqlite3 (default: /database)
//   - DATABASE_DSN: Full MySQL DSN, overrides DB_HOST, DB_USER and DB_NAME
//   - DB_HOST, DB_USER, DB_NAME, DB_PASSWORD: MySQL connection parts
//   - PHOTO_URL_ROOT: URL prefix for photo and thumbnail files (default: /photo)
//   - DIR_URL_ROOT: URL prefix for directory pages (default: /photos)
//   - DEFAULT_THUMB_URL: Thumbnails for directories without an icon
//   - INDEX_WORKERS: Parallel metadata readers (default: derived from CPUs)
//   - INDEX_READ_RATE: Maximum photo reads per second, 0 for unlimited
//   - INDEX_REFRESH_DIRS: Rewrite unchanged directory rows when their photos change
//   - LOCK_BACKEND: file, redis or none (default: file)
//   - LOCK_DIR: Directory for file locks (default: DATABASE_DIR)
//   - LOCK_TTL: Redis lease time-to-live (default: 30s)
//   - REDIS_ADDR, REDIS_PASSWORD: Redis lock server
//   - METRICS_FILE: Prometheus textfile written after each run
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//
// The banner goes to stderr so a dry run's plan on stdout stays clean.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go version used to build
package startup
