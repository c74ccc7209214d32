// Package metrics declares the Prometheus metrics of the photo indexer.
//
// The indexer is a batch tool rather than a server, so metrics are not
// scraped over HTTP. Instead a run can export the default registry to a
// file with WriteTextfile, which the node_exporter textfile collector
// picks up:
//
//	METRICS_FILE=/var/lib/node_exporter/photo_index.prom photo-index --path ...
//
// Metric families:
//   - photo_index_reconcile_*: runs, directory and photo operations, skipped files
//   - photo_index_extract_*: EXIF extraction and pixel-decode fallbacks
//   - photo_index_db_*: query counts, durations and transactions
//   - photo_index_filesystem_*: NFS retry behaviour per volume
//   - photo_index_library_*: totals in the index after a run
package metrics
