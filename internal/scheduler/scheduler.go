package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockLens/internal/model"
)

// Sweeper drops expired cache entries and reports how many went.
type Sweeper interface {
	Sweep() int
}

// DirectoryRefresher reloads the stock directory into the cache.
type DirectoryRefresher interface {
	RefreshDirectory(ctx context.Context) (model.StockDirectory, error)
}

// Scheduler manages the cache maintenance cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Cache     Sweeper
	Directory DirectoryRefresher
	Ctx       context.Context
	log       zerolog.Logger
}

// NewScheduler creates a new Scheduler. dir may be nil when warm-up is not wanted.
func NewScheduler(ctx context.Context, c Sweeper, dir DirectoryRefresher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Cache:     c,
		Directory: dir,
		Ctx:       ctx,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the cache sweep and, when warmCron is set, the directory warm-up.
func (s *Scheduler) RegisterAll(sweepCron, warmCron string) error {
	if _, err := s.Cron.AddFunc(sweepCron, s.sweepTask); err != nil {
		return fmt.Errorf("register sweep task: %w", err)
	}
	if warmCron == "" {
		return nil
	}
	if s.Directory == nil {
		return fmt.Errorf("register warm task: no directory source")
	}
	if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("tasks", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// SweepNow runs the cache sweep immediately and returns the number of removed entries.
func (s *Scheduler) SweepNow() int {
	return s.sweep()
}

func (s *Scheduler) sweepTask() {
	s.sweep()
}

func (s *Scheduler) sweep() int {
	n := s.Cache.Sweep()
	if n > 0 {
		s.log.Debug().Int("removed", n).Msg("cache swept")
	}
	return n
}

func (s *Scheduler) warmTask() {
	dir, err := s.Directory.RefreshDirectory(s.Ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("directory warm-up failed")
		return
	}
	s.log.Debug().Int("stocks", len(dir)).Msg("directory warmed")
}
