package workers

import (
	"os"
	"runtime"
	"strconv"
)

// OverrideEnv names the environment variable that pins the pool size.
const OverrideEnv = "INDEX_WORKERS"

// perCPU is the extraction workers per usable CPU. Reading EXIF headers off a
// network share mostly waits on I/O.
const perCPU = 2

// Resolve returns the size of the metadata extraction pool.
//
// A positive requested count is used as is. Otherwise INDEX_WORKERS applies,
// and failing that perCPU workers per GOMAXPROCS, which follows container CPU
// limits. Both fallbacks are capped by limit when it is positive.
func Resolve(requested, limit int) int {
	if requested > 0 {
		return requested
	}
	n := fromEnv()
	if n <= 0 {
		n = perCPU * runtime.GOMAXPROCS(0)
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return max(n, 1)
}

func fromEnv() int {
	raw := os.Getenv(OverrideEnv)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
