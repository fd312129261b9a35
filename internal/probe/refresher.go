package probe

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/domain"
)

// Refresher polls the render node on an interval and holds the latest
// snapshot behind a mutex. Readers get the last-known value immediately.
type Refresher struct {
	prober   *Prober
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.RWMutex
	snapshot domain.EnvironmentSnapshot
	probedAt time.Time
}

// NewRefresher builds a refresher polling at the given interval.
func NewRefresher(prober *Prober, interval time.Duration, logger zerolog.Logger) *Refresher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Refresher{prober: prober, interval: interval, logger: logger}
}

// Run probes once immediately, then on every tick until ctx is done.
// It should be run in a goroutine.
func (r *Refresher) Run(ctx context.Context) {
	r.refresh(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	snap := r.prober.Probe(ctx)
	r.mu.Lock()
	prev := r.snapshot
	r.snapshot = snap
	r.probedAt = time.Now()
	r.mu.Unlock()

	if prev.Available != snap.Available {
		r.logger.Info().
			Bool("available", snap.Available).
			Bool("ffmpeg_ready", snap.FFmpegReady).
			Int("queue_depth", snap.QueueDepth).
			Msg("probe: render node availability changed")
	}
}

// Snapshot returns the last observed environment state.
func (r *Refresher) Snapshot() domain.EnvironmentSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Set overrides the held snapshot. Intended for tests and manual wiring.
func (r *Refresher) Set(snap domain.EnvironmentSnapshot) {
	r.mu.Lock()
	r.snapshot = snap
	r.probedAt = time.Now()
	r.mu.Unlock()
}
