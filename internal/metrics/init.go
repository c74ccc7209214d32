package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first scrape or textfile write.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Filesystem operation metrics (per volume × operation) ---
	volumes := []string{"photos", "database", "unknown"}
	fsOps := []string{"stat", "open", "readdir"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	// --- Reconciler ---
	for _, mode := range []string{"commit", "dry_run"} {
		for _, status := range []string{"success", "error"} {
			ReconcileRunsTotal.WithLabelValues(mode, status)
		}
	}
	for _, op := range []string{"add", "remove", "refresh"} {
		ReconcileDirectoryOps.WithLabelValues(op)
	}
	for _, op := range []string{"add", "reindex", "remove"} {
		ReconcilePhotoOps.WithLabelValues(op)
	}

	// --- Extraction ---
	for _, source := range []string{"exif", "decode"} {
		ExtractDuration.WithLabelValues(source)
		ExtractTotal.WithLabelValues(source, "success")
		ExtractTotal.WithLabelValues(source, "error")
	}
	ThumbnailLookups.WithLabelValues("found")
	ThumbnailLookups.WithLabelValues("default")

	// --- DB query operations ---
	for _, op := range []string{"initialize_schema", "replace_directory", "replace_photo",
		"delete_directory", "delete_photo", "delete_photos_in", "list_directory_paths",
		"list_photo_mod_times", "get_path_contents", "library_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, t := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(t)
	}
}
