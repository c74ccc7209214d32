//go:build linux

package indexer

import (
	"os"
	"syscall"
	"time"
)

// changeTime returns the inode change time, which is what the gallery has
// always shown as a directory's creation time on Linux.
func changeTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	return info.ModTime()
}
