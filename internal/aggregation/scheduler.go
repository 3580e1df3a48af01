package aggregation

import (
	"context"
	"log/slog"
	"time"

	coreagg "github.com/aevon-lab/asc-analytics/internal/core/aggregation"
)

// Runner runs one extraction for a window.
type Runner interface {
	Run(ctx context.Context, window coreagg.DateWindow) ([]coreagg.OutputRecord, error)
}

// WindowFunc resolves the window to extract at a given time.
type WindowFunc func(now time.Time) (coreagg.DateWindow, error)

// Scheduler runs extractions on a periodic interval. Each tick fully re-derives
// its window; a failed run is logged and retried on the next tick.
type Scheduler struct {
	interval time.Duration
	runner   Runner
	window   WindowFunc
	now      func() time.Time
}

// NewScheduler creates a scheduler ticking every interval.
func NewScheduler(interval time.Duration, runner Runner, window WindowFunc) *Scheduler {
	return &Scheduler{interval: interval, runner: runner, window: window, now: time.Now}
}

// Start runs one extraction immediately, then one per tick, until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting extraction scheduler", "interval", s.interval)

	s.tick(ctx)
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	window, err := s.window(s.now())
	if err != nil {
		slog.Error("[Scheduler] Cannot resolve extraction window", "error", err)
		return
	}
	records, err := s.runner.Run(ctx, window)
	if err != nil {
		slog.Error("[Scheduler] Extraction failed, will retry next tick", "window", window.String(), "error", err)
		return
	}
	slog.Info("[Scheduler] Extraction finished", "window", window.String(), "records", len(records))
}
