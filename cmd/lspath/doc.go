// Command lspath inspects a photo index without touching the photo tree.
//
// Usage:
//
//	lspath <command> [args]
//
// Commands:
//
//	ls [PATH]  Print the contents of a canonical user path ("/", "/2020/trip")
//	           as the gallery sees them: a lightbox list of photos and a grid
//	           of subdirectories followed by photos, encoded as JSON.
//
//	status     Print directory and photo totals and the last committed run.
//
//	show PATH [FILENAME]
//	           Print the stored directory row, or the photo row when a
//	           filename is given, as JSON.
//
// Environment:
//
//	DATABASE_DRIVER - sqlite3 (default) or mysql
//	DATABASE_DIR    - Path to database directory (default: /database)
//	DATABASE_DSN, DB_HOST, DB_USER, DB_NAME, DB_PASSWORD - MySQL connection
//
// An optional .env file (or ENV_FILE) is loaded first, as for the indexer.
package main
