package metrics

import (
	"context"

	"photo-index/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	LibraryStats(ctx context.Context) (Stats, error)
}

// Stats holds the current statistics
type Stats struct {
	TotalDirectories int
	TotalPhotos      int
}

// Collect reads library totals from the provider and updates the gauges.
// Failures are logged and leave the gauges untouched.
func Collect(ctx context.Context, provider StatsProvider) {
	if provider == nil {
		return
	}

	stats, err := provider.LibraryStats(ctx)
	if err != nil {
		logging.Warn("Failed to collect library stats: %v", err)
		return
	}

	LibraryDirectoriesTotal.Set(float64(stats.TotalDirectories))
	LibraryPhotosTotal.Set(float64(stats.TotalPhotos))

	logging.Debug("Metrics collected: directories=%d, photos=%d",
		stats.TotalDirectories, stats.TotalPhotos)
}
