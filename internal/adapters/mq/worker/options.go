package worker

import (
	"github.com/okian/skillmatch/pkg/logger"
)

// Option applies a configuration option to an InMemoryWorker or a Pool.
type Option func(*settings)

type settings struct {
	name     string
	logger   logger.Logger
	sink     Sink
	releaser Releaser
	acker    Acker
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSink receives every newly inserted score.
func WithSink(sink Sink) Option {
	return func(s *settings) {
		s.sink = sink
	}
}

// WithReleaser is told about pairs that should be retried by a later run.
func WithReleaser(r Releaser) Option {
	return func(s *settings) {
		s.releaser = r
	}
}

// WithAcker is told about every task a worker finished, whatever the outcome.
func WithAcker(a Acker) Option {
	return func(s *settings) {
		s.acker = a
	}
}
