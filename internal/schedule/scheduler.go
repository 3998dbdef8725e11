// Package schedule triggers crawl runs on demand and on a cron schedule,
// never letting two runs overlap.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/newsroom-crawler/internal/logger"
	"github.com/jonesrussell/newsroom-crawler/internal/orchestrator"
)

// Runner executes one crawl run.
type Runner interface {
	Run(ctx context.Context) (orchestrator.Summary, error)
}

// Scheduler starts runs in the background.
type Scheduler struct {
	runner Runner
	log    logger.Logger
	cron   *cron.Cron

	busy atomic.Bool
	wg   sync.WaitGroup

	mu      sync.Mutex
	ctx     context.Context
	entries []cron.EntryID
}

// New creates a Scheduler for runner.
func New(runner Runner, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}

	cronParser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(cronParser), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	return &Scheduler{
		runner: runner,
		log:    log,
		cron:   c,
		ctx:    context.Background(),
	}
}

// Busy reports whether a triggered run is executing.
func (s *Scheduler) Busy() bool {
	return s.busy.Load()
}

// Trigger starts a run in the background. It returns
// orchestrator.ErrRunInProgress when a run is already executing.
func (s *Scheduler) Trigger(ctx context.Context) error {
	if !s.busy.CompareAndSwap(false, true) {
		return orchestrator.ErrRunInProgress
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)

		summary, err := s.runner.Run(ctx)
		if err != nil {
			s.log.Error("Triggered run failed", logger.RunID(summary.RunID), logger.Error(err))
			return
		}
		s.log.Info("Triggered run completed", logger.RunID(summary.RunID))
	}()

	return nil
}

// Schedule adds a cron spec (five fields or a descriptor such as "@daily").
func (s *Scheduler) Schedule(spec string) error {
	entryID, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()

		if triggerErr := s.Trigger(ctx); triggerErr != nil {
			if errors.Is(triggerErr, orchestrator.ErrRunInProgress) {
				s.log.Warn("Skipping scheduled run, previous run still executing", logger.String("schedule", spec))
				return
			}
			s.log.Error("Failed to trigger scheduled run", logger.Error(triggerErr))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	s.entries = append(s.entries, entryID)
	s.mu.Unlock()

	s.log.Info("Crawl scheduled", logger.String("schedule", spec))
	return nil
}

// Start runs the cron loop. Scheduled runs use ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
}

// Stop halts the cron loop and waits for any running crawl to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// Entries returns the number of scheduled specs.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}
