// Package database is the persistence gateway of the photo index.
//
// It stores two tables:
//   - dirs: one row per directory, keyed by canonical user path
//   - photos: one row per photo, keyed by (user path, filename)
//
// Writes use REPLACE INTO so a record is always replaced in full, and run
// inside batches opened with BeginBatch and closed with EndBatch. SQLite (WAL
// mode) is the default store; MySQL is supported for the original gallery
// deployment. Timestamps are stored as "YYYY-MM-DD HH:MM:SS" strings on both.
package database
