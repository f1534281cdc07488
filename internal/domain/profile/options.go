package profile

import "github.com/okian/skillmatch/pkg/logger"

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithCacheSize bounds the hash -> profile cache. Non-positive disables it.
func WithCacheSize(size int) Option {
	return func(r *Resolver) {
		r.cacheSize = size
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}
