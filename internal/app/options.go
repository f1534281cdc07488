package service

import (
	"time"

	"github.com/okian/skillmatch/internal/domain/crosswalk"
	"github.com/okian/skillmatch/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers per run.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize caps the pair queue of a run.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the settled-pair memory. Zero means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithProfileCacheSize bounds the hash to profile cache.
func WithProfileCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.profileCacheSize = size
		}
	}
}

// WithTagCache sets the scorer's tag cache size and TTL.
func WithTagCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size > 0 {
			s.tagCacheSize = size
		}
		if ttl > 0 {
			s.tagCacheTTL = ttl
		}
	}
}

// WithSchedule sets the pause between scheduled runs and the time box of each.
// A non-positive interval disables the scheduler.
func WithSchedule(interval, timeout time.Duration) Option {
	return func(s *Service) {
		s.interval = interval
		if timeout > 0 {
			s.batchTimeout = timeout
		}
	}
}

// WithRanking toggles the in-memory recommendation index.
func WithRanking(enabled bool) Option {
	return func(s *Service) {
		s.rankingEnabled = enabled
	}
}

// WithCodeTable sets the occupation code table used by Translate.
func WithCodeTable(table crosswalk.CodeTable) Option {
	return func(s *Service) {
		if table != nil {
			s.codeTable = table
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
