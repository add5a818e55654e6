package service

import (
	"github.com/jonboulle/clockwork"

	"github.com/okian/drought/internal/domain/model"
	"github.com/okian/drought/internal/domain/season"
	"github.com/okian/drought/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithShardCount sets the number of parameter store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the clock used for run timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithTimescales sets the accumulation windows in months.
func WithTimescales(ts ...int) Option {
	return func(s *Service) {
		if len(ts) > 0 {
			s.timescales = append([]int(nil), ts...)
		}
	}
}

// WithThresholds sets the SPI thresholds events are segmented at.
func WithThresholds(th []float64) Option {
	return func(s *Service) {
		if len(th) > 0 {
			s.thresholds = append([]float64(nil), th...)
		}
	}
}

// WithSeasonPolicy selects how the modal season is chosen.
func WithSeasonPolicy(p season.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithDirection selects drought or wet events.
func WithDirection(d model.Direction) Option {
	return func(s *Service) {
		s.direction = d
	}
}

// WithDurationUnit selects how event durations are reported.
func WithDurationUnit(u model.Unit) Option {
	return func(s *Service) {
		s.unit = u
	}
}

// WithPrecision sets the rounding of accumulated sums; negative disables it.
func WithPrecision(decimals int) Option {
	return func(s *Service) {
		s.precision = decimals
	}
}

// WithObservationMonths fixes the cumulative-percentage window.
func WithObservationMonths(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.observation = n
		}
	}
}
