package batch

import (
	"time"

	"github.com/okian/skillmatch/internal/adapters/mq/worker"
	"github.com/okian/skillmatch/internal/domain/dedupe"
	"github.com/okian/skillmatch/pkg/logger"
)

// Option applies a configuration option to the Job.
type Option func(*Job)

// WithWorkers sets the number of workers started per run.
func WithWorkers(n int) Option {
	return func(j *Job) {
		if n > 0 {
			j.workers = n
		}
	}
}

// WithQueueSize caps the pair queue of a run.
func WithQueueSize(n int) Option {
	return func(j *Job) {
		if n > 0 {
			j.queueSize = n
		}
	}
}

// WithDeduper sets the settled-pair memory shared across runs.
func WithDeduper(d dedupe.Deduper) Option {
	return func(j *Job) {
		if d != nil {
			j.settled = d
		}
	}
}

// WithSink receives every newly inserted score.
func WithSink(s worker.Sink) Option {
	return func(j *Job) {
		j.sink = s
	}
}

// WithMethod sets the method tag written on scores.
func WithMethod(method string) Option {
	return func(j *Job) {
		if method != "" {
			j.method = method
		}
	}
}

// WithClock overrides the time source used for computed_at.
func WithClock(now func() time.Time) Option {
	return func(j *Job) {
		if now != nil {
			j.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(j *Job) {
		if l != nil {
			j.logger = l
		}
	}
}
