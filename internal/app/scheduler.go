package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/drought/pkg/logger"
)

// scheduler re-runs a directory batch on a cron schedule.
type scheduler struct {
	cron *cron.Cron
	id   cron.EntryID
}

func (sc *scheduler) stop() {
	<-sc.cron.Stop().Done()
}

func (sc *scheduler) next() time.Time {
	return sc.cron.Entry(sc.id).Next
}

// Schedule re-runs RunDir(inputDir, outputDir) whenever expr fires, until
// Stop. expr is a standard five-field cron expression or a descriptor such
// as "@every 6h". A run still in progress delays the next one.
func (s *Service) Schedule(ctx context.Context, expr, inputDir, outputDir string) error {
	if _, err := s.paramStore(); err != nil {
		return err
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := c.AddFunc(expr, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.RunDir(ctx, inputDir, outputDir); err != nil {
			s.logger.Error(ctx, "scheduled run failed", logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", expr, err)
	}

	s.mu.Lock()
	prev := s.scheduler
	s.scheduler = &scheduler{cron: c, id: id}
	s.mu.Unlock()
	if prev != nil {
		prev.stop()
	}

	c.Start()
	s.logger.Info(ctx, "batch scheduled", logger.String("schedule", expr))
	return nil
}

// NextRun returns when the scheduled batch fires next, or the zero time.
func (s *Service) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.scheduler == nil {
		return time.Time{}
	}
	return s.scheduler.next()
}
