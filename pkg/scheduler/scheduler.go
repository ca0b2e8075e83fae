// Package scheduler runs the refresh pipeline periodically and publishes its results as
// immutable snapshots for concurrent readers.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/rssfilter/pkg/domain"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner
//go:generate moq -out mocks/recorder.go -pkg mocks -skip-ensure -fmt goimports . Recorder

// Runner performs a single refresh cycle
type Runner interface {
	Run(ctx context.Context, cfg domain.AggregationConfig, maxItems int) ([]domain.Item, domain.RefreshOutcome)
}

// Recorder keeps a journal of published snapshots
type Recorder interface {
	Record(ctx context.Context, snap domain.Snapshot) error
}

// Params holds scheduler dependencies and settings
type Params struct {
	Runner      Runner
	Recorder    Recorder // optional
	Aggregation domain.AggregationConfig
	Interval    time.Duration
	MaxItems    int
}

// Scheduler refreshes on start and then every interval. At most one cycle runs at a time,
// a tick arriving while a cycle is in progress is dropped.
// The published snapshot is swapped atomically; readers never wait for a cycle.
type Scheduler struct {
	runner      Runner
	recorder    Recorder
	aggregation domain.AggregationConfig
	interval    time.Duration
	maxItems    int

	snapshot atomic.Pointer[domain.Snapshot]
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler with an empty, never refreshed snapshot
func NewScheduler(params Params) *Scheduler {
	if params.Interval <= 0 {
		params.Interval = time.Hour
	}
	if params.MaxItems <= 0 {
		params.MaxItems = 15
	}

	s := &Scheduler{
		runner:      params.Runner,
		recorder:    params.Recorder,
		aggregation: params.Aggregation,
		interval:    params.Interval,
		maxItems:    params.MaxItems,
	}
	s.snapshot.Store(&domain.Snapshot{Items: []domain.Item{}, Outcome: domain.NeverRefreshed})
	return s
}

// Run refreshes immediately and then on every tick until ctx is canceled.
// It waits for an in-flight cycle before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	lgr.Printf("[INFO] scheduler started with refresh interval %v, max items %d", s.interval, s.maxItems)
	s.RefreshNow(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			lgr.Printf("[INFO] scheduler stopped")
			return nil
		case <-ticker.C:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if !s.RefreshNow(ctx) {
					lgr.Printf("[WARN] refresh still in progress, tick skipped")
				}
			}()
		}
	}
}

// RefreshNow runs a cycle unless one is already running. Returns false if the call was skipped.
func (s *Scheduler) RefreshNow(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	defer s.running.Store(false)

	items, outcome := s.runner.Run(ctx, s.aggregation, s.maxItems)
	snap := s.publish(items, outcome)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, snap); err != nil {
			lgr.Printf("[WARN] failed to record refresh %d: %v", snap.Cycle, err)
		}
	}
	return true
}

// Snapshot returns the latest published snapshot. Callers must not modify the items.
func (s *Scheduler) Snapshot() domain.Snapshot {
	return *s.snapshot.Load()
}

// Aggregation returns the configuration the scheduler refreshes with
func (s *Scheduler) Aggregation() domain.AggregationConfig {
	return s.aggregation
}

// publish swaps in a new snapshot. A failed cycle keeps the previous items and only updates the outcome.
// Only called under the running flag, so load and store don't race with another writer.
func (s *Scheduler) publish(items []domain.Item, outcome domain.RefreshOutcome) domain.Snapshot {
	prev := s.snapshot.Load()
	next := &domain.Snapshot{Items: items, Outcome: outcome, Cycle: prev.Cycle + 1}
	switch {
	case !outcome.OK:
		next.Items = prev.Items
	case items == nil:
		next.Items = []domain.Item{}
	}
	s.snapshot.Store(next)
	return *next
}
