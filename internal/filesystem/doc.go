/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

Photo libraries are frequently served from NFS shares. A reconciliation pass stats,
lists and opens every file under the target, so a transient ESTALE on one entry must
not abort the run or, worse, make a directory look deleted.

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())

	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer file.Close()

# Retry Behavior

Defaults:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Only ESTALE triggers retries. All other errors fail immediately.

# Metrics

Operations are reported to the Observer set with SetObserver, labelled with the
volume name from the VolumeResolver ("photos", "database"). Without an observer
nothing is recorded.
*/
package filesystem
