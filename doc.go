// Command photo-index reconciles a relational photo index with the photo tree
// on disk.
//
// Usage:
//
//	photo-index --path DIR [--root DIR] [--force] [--for-real] [--refresh-dirs]
//	            [--db-driver sqlite3|mysql] [--db-dsn DSN] [--password-prompt]
//
// Without --for-real the run is a dry run: every write the pass would make is
// printed to stdout, one per line, and the index is left untouched. Logs and
// the startup banner go to stderr.
//
// # Run Sequence
//
//  1. Memory: GOMEMLIMIT is derived from MEMORY_LIMIT when set
//  2. Configuration: environment and .env, then command-line overrides
//  3. Database: sqlite3 file or MySQL server, schema created if missing
//  4. Lock: the index root is locked (file, redis or none) for the whole pass
//  5. Reconciliation: walk, diff against the index, extract metadata in
//     parallel, one transaction per directory
//  6. Summary: run totals logged, Prometheus metrics written to METRICS_FILE
//
// # Exit Codes
//
//	0  success
//	1  failure (database, I/O, overlapping add and remove sets)
//	2  usage or configuration error
//	3  --path does not exist or is outside the index root
//	4  another run holds the lock
//
// Interrupting the command (SIGINT or SIGTERM) stops after the directory
// being written; committed directories stay committed.
package main
