/*
Package workers sizes the metadata extraction pool.

Extraction is mostly I/O (reading EXIF headers, sometimes decoding pixels), so
the default is two workers per available CPU. GOMAXPROCS is used instead of
runtime.NumCPU so container CPU limits are respected.

	n := workers.Resolve(opts.Workers, 16)

Set INDEX_WORKERS to pin the count, for example to 1 on a fragile NFS mount.
*/
package workers
