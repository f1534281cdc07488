package profile

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

const defaultCacheSize = 10_000

// Catalog looks tags up by id. Unknown ids are simply absent from the result.
type Catalog interface {
	TagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error)
}

// Store persists profiles. ResolveProfile must look the hash up and insert
// the profile plus its membership rows only when absent, in one transaction.
type Store interface {
	ResolveProfile(ctx context.Context, hash string, tagIDs []string) (model.TagProfile, bool, error)
}

// Resolver maps tag id sets to their single canonical TagProfile.
type Resolver struct {
	catalog   Catalog
	store     Store
	cacheSize int
	cache     *lru.Cache[string, model.TagProfile]
	logger    logger.Logger
}

// NewResolver creates a resolver with configuration options.
func NewResolver(catalog Catalog, store Store, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		catalog:   catalog,
		store:     store,
		cacheSize: defaultCacheSize,
		logger:    logger.Get().Named("profile"),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.cacheSize > 0 {
		cache, err := lru.New[string, model.TagProfile](r.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("profile cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Resolve returns the profile for a set of tag ids, creating it on first
// sight. Unknown and deprecated tags never enter a new profile.
func (r *Resolver) Resolve(ctx context.Context, tagIDs []string) (model.TagProfile, error) {
	ids := Canonical(tagIDs)

	tags, err := r.catalog.TagsByIDs(ctx, ids)
	if err != nil {
		return model.TagProfile{}, fmt.Errorf("%w: load tags: %w", ErrResolve, err)
	}
	eligible := make([]string, 0, len(tags))
	for i := range tags {
		if tags[i].Deprecated() {
			continue
		}
		eligible = append(eligible, tags[i].ID)
	}
	eligible = Canonical(eligible)
	if dropped := len(ids) - len(eligible); dropped > 0 {
		r.logger.Debug(ctx, "dropped ineligible tags from profile",
			logger.Int("requested", len(ids)),
			logger.Int("dropped", dropped),
		)
	}

	hash := Hash(eligible)
	if r.cache != nil {
		if p, ok := r.cache.Get(hash); ok {
			metrics.RecordProfileCacheHit()
			return p, nil
		}
	}

	p, created, err := r.store.ResolveProfile(ctx, hash, eligible)
	if err != nil {
		metrics.RecordErrorByComponent("profile", "resolve")
		return model.TagProfile{}, fmt.Errorf("%w: %w", ErrResolve, err)
	}
	if created {
		metrics.RecordProfileCreated()
		r.logger.Debug(ctx, "created tag profile",
			logger.String("profileID", p.ID),
			logger.Int("tags", len(eligible)),
		)
	} else {
		metrics.RecordProfileReused()
	}

	if r.cache != nil {
		r.cache.Add(hash, p)
	}
	return p, nil
}
