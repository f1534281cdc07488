// Package ranking keeps, per user profile, the item profiles ordered by
// raw similarity score so recommendations can be read without storage.
package ranking

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

// Entry is one recommended item for a user profile. Rank is dense: equal
// scores share a rank and the next distinct score gets the next rank.
type Entry struct {
	Rank          int     `json:"rank"`
	ItemProfileID string  `json:"itemProfileId"`
	Score         float64 `json:"score"`
}

// ScoreSource lists stored scores for one method.
type ScoreSource interface {
	Scores(ctx context.Context, method string) ([]model.RawScore, error)
}

// Option applies a configuration option to the Index.
type Option func(*Index)

// WithMethod selects which score method the index holds.
func WithMethod(method string) Option {
	return func(ix *Index) {
		if method != "" {
			ix.method = method
		}
	}
}

type userTree struct {
	root   *node
	byItem map[string]float64
}

// Index is a concurrency-safe set of per-user treaps.
type Index struct {
	method string
	logger logger.Logger

	mu      sync.RWMutex
	users   map[string]*userTree
	entries int
}

// NewIndex creates an empty index.
func NewIndex(opts ...Option) *Index {
	ix := &Index{
		method: model.ScoreMethodRawSimilarity,
		logger: logger.Get().Named("ranking"),
		users:  make(map[string]*userTree),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Method returns the score method the index holds.
func (ix *Index) Method() string { return ix.method }

// Upsert places or moves an item in a user's ranking. It reports whether
// the index changed.
func (ix *Index) Upsert(userProfileID, itemProfileID string, score float64) bool {
	ix.mu.Lock()
	t, ok := ix.users[userProfileID]
	if !ok {
		t = &userTree{byItem: make(map[string]float64)}
		ix.users[userProfileID] = t
	}
	if old, ok := t.byItem[itemProfileID]; ok {
		if old == score {
			ix.mu.Unlock()
			return false
		}
		t.root = remove(t.root, itemProfileID, old)
	} else {
		ix.entries++
	}
	t.byItem[itemProfileID] = score
	t.root = insert(t.root, itemProfileID, score)
	users, entries := len(ix.users), ix.entries
	ix.mu.Unlock()

	metrics.UpdateRankingSize(users, entries)
	return true
}

// Observe feeds a freshly stored score into the index. Scores of other
// methods are ignored.
func (ix *Index) Observe(s model.RawScore) {
	if s.Method != ix.method {
		return
	}
	ix.Upsert(s.UserProfileID, s.ItemProfileID, s.Score)
}

// Warm loads every stored score of the index method.
func (ix *Index) Warm(ctx context.Context, src ScoreSource) error {
	scores, err := src.Scores(ctx, ix.method)
	if err != nil {
		return fmt.Errorf("warm ranking index: %w", err)
	}
	for _, s := range scores {
		ix.Upsert(s.UserProfileID, s.ItemProfileID, s.Score)
	}
	users, entries := ix.Count()
	ix.logger.Info(ctx, "ranking index warmed",
		logger.Int("users", users),
		logger.Int("entries", entries),
	)
	return nil
}

// TopN returns the n closest items for a user profile.
func (ix *Index) TopN(userProfileID string, n int) ([]Entry, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	t, ok := ix.users[userProfileID]
	if !ok {
		return nil, fmt.Errorf("user profile %q: %w", userProfileID, ErrNotFound)
	}

	out := make([]Entry, 0, min(n, nsize(t.root)))
	walk(t.root, func(nd *node) bool {
		out = append(out, Entry{ItemProfileID: nd.id, Score: nd.score})
		return len(out) < n
	})
	assignDenseRanks(out)
	return out, nil
}

// Rank returns the entry of one item within a user's ranking.
func (ix *Index) Rank(userProfileID, itemProfileID string) (Entry, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	t, ok := ix.users[userProfileID]
	if !ok {
		return Entry{}, fmt.Errorf("user profile %q: %w", userProfileID, ErrNotFound)
	}
	score, ok := t.byItem[itemProfileID]
	if !ok {
		return Entry{}, fmt.Errorf("item profile %q: %w", itemProfileID, ErrNotFound)
	}

	rank, prev, first := 0, 0.0, true
	walk(t.root, func(nd *node) bool {
		if first || nd.score != prev {
			rank++
			prev, first = nd.score, false
		}
		return nd.id != itemProfileID || nd.score != score
	})
	return Entry{Rank: rank, ItemProfileID: itemProfileID, Score: score}, nil
}

// Position returns the zero-based ordinal of an item, ignoring ties.
func (ix *Index) Position(userProfileID, itemProfileID string) (int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	t, ok := ix.users[userProfileID]
	if !ok {
		return 0, fmt.Errorf("user profile %q: %w", userProfileID, ErrNotFound)
	}
	score, ok := t.byItem[itemProfileID]
	if !ok {
		return 0, fmt.Errorf("item profile %q: %w", itemProfileID, ErrNotFound)
	}
	return position(t.root, itemProfileID, score), nil
}

// Count returns the number of users and entries held.
func (ix *Index) Count() (users, entries int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.users), ix.entries
}

func assignDenseRanks(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}
