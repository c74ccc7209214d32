package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"photo-index/internal/logging"
	"photo-index/internal/metrics"
)

// Config holds the guard thresholds
type Config struct {
	// LimitBytes is the budget to measure against; 0 uses GOMEMLIMIT.
	LimitBytes int64

	// HighWaterMark is the usage ratio below which a pause ends.
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which extraction pauses.
	CriticalWaterMark float64

	// CheckInterval is the sampling period.
	CheckInterval time.Duration
}

// DefaultConfig returns the thresholds used by the indexer
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     2 * time.Second,
	}
}

// Guard pauses callers of Wait while heap usage is critical.
type Guard struct {
	config Config
	limit  int64

	// readAlloc is swapped out in tests.
	readAlloc func() uint64

	mu     sync.RWMutex
	alloc  uint64
	paused bool
	resume chan struct{}
}

// NewGuard creates a guard. It does nothing until Run is started.
func NewGuard(config Config) *Guard {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}
	if limit == 0 {
		logging.Debug("No memory limit configured, extraction backpressure disabled")
	}

	return &Guard{
		config:    config,
		limit:     limit,
		readAlloc: heapAlloc,
		resume:    make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Limit returns the byte budget, 0 when there is none.
func (g *Guard) Limit() int64 {
	return g.limit
}

// Run samples memory until ctx is done. Any pause is lifted on return.
func (g *Guard) Run(ctx context.Context) {
	if g.limit == 0 {
		return
	}

	ticker := time.NewTicker(g.config.CheckInterval)
	defer ticker.Stop()
	defer g.release()

	for {
		select {
		case <-ticker.C:
			g.sample(g.readAlloc())
		case <-ctx.Done():
			return
		}
	}
}

// sample applies one measurement. Between the two marks the state is kept.
func (g *Guard) sample(alloc uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.alloc = alloc
	if g.limit == 0 {
		return
	}

	usage := float64(alloc) / float64(g.limit)
	metrics.MemoryUsageRatio.Set(usage)

	switch {
	case usage >= g.config.CriticalWaterMark && !g.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing extraction", usage*100)
		g.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPauses.Inc()
		go runtime.GC()
	case usage < g.config.HighWaterMark && g.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming extraction", usage*100)
		g.unpauseLocked()
	}
}

func (g *Guard) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.unpauseLocked()
	}
}

func (g *Guard) unpauseLocked() {
	g.paused = false
	metrics.MemoryPaused.Set(0)
	close(g.resume)
	g.resume = make(chan struct{})
}

// Wait returns immediately unless extraction is paused, in which case it
// blocks until the pause ends or ctx is done.
func (g *Guard) Wait(ctx context.Context) error {
	g.mu.RLock()
	if !g.paused {
		g.mu.RUnlock()
		return nil
	}
	resume := g.resume
	g.mu.RUnlock()

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether extraction is currently paused.
func (g *Guard) Paused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}

// Usage returns the last sampled allocation as a fraction of the limit.
func (g *Guard) Usage() float64 {
	if g.limit == 0 {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return float64(g.alloc) / float64(g.limit)
}
