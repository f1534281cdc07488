package scoring

import (
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
)

// Option applies a configuration option to the CollectionScorer.
type Option func(*CollectionScorer)

// WithTagCache sets the size and TTL of the per-profile tag cache.
// A non-positive size disables caching.
func WithTagCache(size int, ttl time.Duration) Option {
	return func(s *CollectionScorer) {
		s.cacheSize = size
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithNamespace selects which tag namespace is compared.
func WithNamespace(ns model.Namespace) Option {
	return func(s *CollectionScorer) {
		if ns.Valid() {
			s.namespace = ns
		}
	}
}

// WithClock overrides the time source stamped on scores.
func WithClock(now func() time.Time) Option {
	return func(s *CollectionScorer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *CollectionScorer) {
		if l != nil {
			s.logger = l
		}
	}
}
