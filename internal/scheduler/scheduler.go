/**
 * @description
 * Pipeline scheduler: drives one cycle per interval with a re-entrant guard.
 * A tick that fires while a cycle is still running is dropped and logged:
 * no queue, no overlap. Stage ordering within a cycle is fixed: adapters,
 * store, profiler, deltas, signals, classifier, alerter.
 *
 * @dependencies
 * - github.com/google/uuid: per-cycle trace IDs in logs
 * - backend/internal/providers
 * - backend/internal/store
 * - backend/internal/profiler
 * - backend/internal/pipeline
 * - backend/internal/signals
 * - backend/internal/alerter
 */

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marketpulse-project/backend/internal/alerter"
	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/models"
	"github.com/marketpulse-project/backend/internal/pipeline"
	"github.com/marketpulse-project/backend/internal/profiler"
	"github.com/marketpulse-project/backend/internal/providers"
	"github.com/marketpulse-project/backend/internal/signals"
	"github.com/marketpulse-project/backend/internal/store"
)

// Pipeline wires the per-cycle stages in execution order.
type Pipeline struct {
	Providers  []providers.Provider
	Store      *store.SnapshotStore
	Profiler   *profiler.Service
	Deltas     *pipeline.DeltaEngine
	Signals    *signals.Tracker
	Classifier *pipeline.Classifier
	Alerter    *alerter.Alerter
}

// RunCycle executes one full tick. Adapter failures are soft (the provider
// contributes nothing this tick); stage failures fail the cycle.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()[:8]
	tick := time.Now().UTC().Truncate(time.Minute)
	started := time.Now()

	snapshots := p.fetchAll(ctx, tick, cycleID)

	stored, err := p.Store.UpsertAll(ctx, snapshots)
	if err != nil {
		return fmt.Errorf("store stage failed: %w", err)
	}

	profiled, err := p.Profiler.ProfilePending(ctx)
	if err != nil {
		return fmt.Errorf("profiler stage failed: %w", err)
	}

	deltas, err := p.Deltas.ComputeDeltas(ctx)
	if err != nil {
		return fmt.Errorf("delta stage failed: %w", err)
	}

	spot := p.Signals.Refresh(ctx)

	classified, err := p.Classifier.ClassifyLatest(ctx, spot)
	if err != nil {
		return fmt.Errorf("classify stage failed: %w", err)
	}

	alerts, err := p.Alerter.RunAlerts(ctx)
	if err != nil {
		return fmt.Errorf("alert stage failed: %w", err)
	}

	logger.Info("[%s] cycle %s: %d snapshots, %d stored, %d profiled, %d deltas, %d classified, %d alerts in %s",
		cycleID, tick.Format("15:04"), len(snapshots), stored, profiled, deltas, classified, alerts,
		time.Since(started).Round(time.Millisecond))
	return nil
}

// fetchAll runs every enabled adapter in parallel; a failed adapter yields
// nothing for this tick and the others proceed.
func (p *Pipeline) fetchAll(ctx context.Context, tick time.Time, cycleID string) []models.OutcomeSnapshot {
	var mu sync.Mutex
	var wg sync.WaitGroup
	var all []models.OutcomeSnapshot

	for _, provider := range p.Providers {
		if !provider.Enabled() {
			continue
		}

		wg.Add(1)
		go func(provider providers.Provider) {
			defer wg.Done()

			snaps, err := provider.FetchSnapshots(ctx, tick)
			if err != nil {
				logger.Error("[%s] adapter %s failed: %v", cycleID, provider.Name(), err)
				return
			}

			mu.Lock()
			all = append(all, snaps...)
			mu.Unlock()
		}(provider)
	}
	wg.Wait()

	return all
}

// CycleRunner is the unit the scheduler drives once per tick.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// Scheduler runs the pipeline on a fixed interval with a re-entrant guard.
type Scheduler struct {
	Runner   CycleRunner
	Interval time.Duration

	running atomic.Bool
}

func New(runner CycleRunner, interval time.Duration) *Scheduler {
	return &Scheduler{Runner: runner, Interval: interval}
}

// Start runs one immediate cycle, then ticks until ctx is cancelled.
// It returns after the in-flight cycle (if any) has drained.
func (s *Scheduler) Start(ctx context.Context) {
	s.runGuarded(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runGuarded(ctx)
		}
	}
}

// runGuarded is the non-blocking try-lock around the cycle body.
func (s *Scheduler) runGuarded(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		logger.Info("scheduler: previous cycle still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	if err := s.Runner.RunCycle(ctx); err != nil {
		logger.Error("scheduler: cycle failed: %v", err)
	}
}

// TryRun exposes the guard for callers that drive cycles manually (tests,
// one-shot runs). Returns false when a cycle is already in flight.
func (s *Scheduler) TryRun(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	defer s.running.Store(false)

	if err := s.Runner.RunCycle(ctx); err != nil {
		logger.Error("scheduler: cycle failed: %v", err)
	}
	return true
}
