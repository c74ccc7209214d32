// Package logging provides a simple leveled logging interface for the
// photo indexer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable.
// Messages are written to stderr; setting LOG_FILE additionally writes
// JSON lines to a size-rotated file.
package logging
