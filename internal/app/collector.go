package service

import (
	"context"
	"sync"

	"github.com/okian/drought/internal/domain/analysis"
	"github.com/okian/drought/internal/domain/model"
)

// collector gathers worker output for one run.
type collector struct {
	mu       sync.Mutex
	reports  []*analysis.Report
	failures []model.Failure
}

func (c *collector) Collect(_ context.Context, rep *analysis.Report) {
	c.mu.Lock()
	c.reports = append(c.reports, rep)
	c.mu.Unlock()
}

func (c *collector) Fail(_ context.Context, job model.Job, err error) {
	c.mu.Lock()
	c.failures = append(c.failures, model.Failure{
		Key:    model.Key{Location: job.Location},
		Stage:  model.StageLocation,
		Reason: err.Error(),
	})
	c.mu.Unlock()
}
