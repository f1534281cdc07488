// Package scoring turns a user/item profile pair into a raw similarity score.
package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/okian/skillmatch/internal/domain/distance"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

const (
	defaultCacheSize = 20_000
	defaultCacheTTL  = time.Minute
)

// TagSource loads the non-deprecated tags of a profile in one namespace.
type TagSource interface {
	TagsByProfile(ctx context.Context, profileID string, ns model.Namespace) ([]model.Tag, error)
}

// Scorer computes the raw score of one pair.
type Scorer interface {
	// Score returns the pair's score. Errors wrapping distance.ErrInvalidInput
	// mean the pair can never be scored; ErrLoadTags is retryable.
	Score(ctx context.Context, task model.PairTask) (model.RawScore, error)
}

// CollectionScorer scores pairs with distance.CollectionDistance over the
// skill tags of both profiles.
type CollectionScorer struct {
	tags      TagSource
	namespace model.Namespace
	cacheSize int
	cacheTTL  time.Duration
	cache     *expirable.LRU[string, []model.Tag]
	now       func() time.Time
	logger    logger.Logger
}

// NewCollectionScorer creates a scorer reading tags from src.
func NewCollectionScorer(src TagSource, opts ...Option) *CollectionScorer {
	s := &CollectionScorer{
		tags:      src,
		namespace: model.NamespaceSkill,
		cacheSize: defaultCacheSize,
		cacheTTL:  defaultCacheTTL,
		now:       time.Now,
		logger:    logger.Get().Named("scoring"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheSize > 0 {
		// Deprecating a tag changes a profile's eligible set, so entries expire.
		s.cache = expirable.NewLRU[string, []model.Tag](s.cacheSize, nil, s.cacheTTL)
	}
	return s
}

// Score implements Scorer.
func (s *CollectionScorer) Score(ctx context.Context, task model.PairTask) (model.RawScore, error) {
	if err := ctx.Err(); err != nil {
		return model.RawScore{}, fmt.Errorf("score cancelled: %w", err)
	}
	start := time.Now()

	userTags, err := s.profileTags(ctx, task.UserProfileID)
	if err != nil {
		return model.RawScore{}, err
	}
	itemTags, err := s.profileTags(ctx, task.ItemProfileID)
	if err != nil {
		return model.RawScore{}, err
	}

	d, err := distance.CollectionDistance(userTags, itemTags)
	if err != nil {
		return model.RawScore{}, fmt.Errorf("pair %s: %w", task.Key(), err)
	}
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)

	method := task.Method
	if method == "" {
		method = model.ScoreMethodRawSimilarity
	}
	return model.RawScore{
		UserProfileID: task.UserProfileID,
		ItemProfileID: task.ItemProfileID,
		Method:        method,
		Score:         d,
		CreatedAt:     s.now().UTC(),
	}, nil
}

func (s *CollectionScorer) profileTags(ctx context.Context, profileID string) ([]model.Tag, error) {
	if s.cache != nil {
		if tags, ok := s.cache.Get(profileID); ok {
			metrics.RecordTagCacheHit()
			return tags, nil
		}
		metrics.RecordTagCacheMiss()
	}

	tags, err := s.tags.TagsByProfile(ctx, profileID, s.namespace)
	if err != nil {
		s.logger.Warn(ctx, "failed to load profile tags",
			logger.String("profileID", profileID),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: profile %s: %w", ErrLoadTags, profileID, err)
	}
	if s.cache != nil {
		s.cache.Add(profileID, tags)
	}
	return tags, nil
}

// Purge drops every cached tag list.
func (s *CollectionScorer) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
