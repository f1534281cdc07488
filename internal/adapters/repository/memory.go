package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/metrics"
)

type scoreKey struct {
	user   string
	item   string
	method string
}

// MemoryStore is a mutex-guarded, in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	tags     map[string]model.Tag
	profiles map[string]model.TagProfile
	byHash   map[string]string
	members  map[string][]string
	owners   map[model.OwnerKind]map[string]string
	scores   map[scoreKey]model.RawScore
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tags:     make(map[string]model.Tag),
		profiles: make(map[string]model.TagProfile),
		byHash:   make(map[string]string),
		members:  make(map[string][]string),
		owners: map[model.OwnerKind]map[string]string{
			model.OwnerUser:        {},
			model.OwnerOpportunity: {},
		},
		scores: make(map[scoreKey]model.RawScore),
		now:    time.Now,
	}
}

// PutTag implements TagCatalog.
func (s *MemoryStore) PutTag(_ context.Context, tag model.Tag) error {
	if tag.ID == "" || !tag.Namespace.Valid() {
		return fmt.Errorf("%w: id %q namespace %q", ErrInvalidTag, tag.ID, tag.Namespace)
	}
	tag.Embedding = slices.Clone(tag.Embedding)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[tag.ID] = tag
	return nil
}

// DeprecateTag implements TagCatalog.
func (s *MemoryStore) DeprecateTag(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, ok := s.tags[id]
	if !ok {
		return fmt.Errorf("tag %q: %w", id, ErrNotFound)
	}
	tag.DeprecatedAt = &at
	s.tags[id] = tag
	return nil
}

// TagsByIDs implements TagCatalog.
func (s *MemoryStore) TagsByIDs(_ context.Context, ids []string) ([]model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		if tag, ok := s.tags[id]; ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

// TagsByProfile implements TagCatalog.
func (s *MemoryStore) TagsByProfile(_ context.Context, profileID string, ns model.Namespace) ([]model.Tag, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency("tags_by_profile", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.profiles[profileID]; !ok {
		return nil, fmt.Errorf("profile %q: %w", profileID, ErrNotFound)
	}
	var out []model.Tag
	for _, id := range s.members[profileID] {
		tag, ok := s.tags[id]
		if !ok || tag.Namespace != ns || tag.Deprecated() {
			continue
		}
		out = append(out, tag)
	}
	return out, nil
}

// FindProfileByHash implements ProfileStore.
func (s *MemoryStore) FindProfileByHash(_ context.Context, hash string) (model.TagProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byHash[hash]
	if !ok {
		return model.TagProfile{}, fmt.Errorf("profile hash %q: %w", hash, ErrNotFound)
	}
	return s.profiles[id], nil
}

// ResolveProfile implements ProfileStore. The write lock plays the role of
// the transaction.
func (s *MemoryStore) ResolveProfile(_ context.Context, hash string, tagIDs []string) (model.TagProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byHash[hash]; ok {
		return s.profiles[id], false, nil
	}

	p := model.TagProfile{
		ID:        uuid.NewString(),
		Hash:      hash,
		CreatedAt: s.now().UTC(),
	}
	members := slices.Clone(tagIDs)
	slices.Sort(members)
	members = slices.Compact(members)

	s.profiles[p.ID] = p
	s.byHash[hash] = p.ID
	s.members[p.ID] = members
	return p, true, nil
}

// Profile implements ProfileStore.
func (s *MemoryStore) Profile(_ context.Context, id string) (model.TagProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return model.TagProfile{}, fmt.Errorf("profile %q: %w", id, ErrNotFound)
	}
	return p, nil
}

// AssignProfile implements ProfileStore.
func (s *MemoryStore) AssignProfile(_ context.Context, owner model.ProfileOwner) error {
	if !owner.Kind.Valid() || owner.OwnerID == "" {
		return fmt.Errorf("%w: %s/%q", ErrInvalidOwner, owner.Kind, owner.OwnerID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[owner.ProfileID]; !ok {
		return fmt.Errorf("profile %q: %w", owner.ProfileID, ErrNotFound)
	}
	s.owners[owner.Kind][owner.OwnerID] = owner.ProfileID
	return nil
}

// Owner implements ProfileStore.
func (s *MemoryStore) Owner(_ context.Context, kind model.OwnerKind, ownerID string) (model.ProfileOwner, error) {
	if !kind.Valid() {
		return model.ProfileOwner{}, fmt.Errorf("%w: %s", ErrInvalidOwner, kind)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.owners[kind][ownerID]
	if !ok {
		return model.ProfileOwner{}, fmt.Errorf("owner %s/%q: %w", kind, ownerID, ErrNotFound)
	}
	return model.ProfileOwner{Kind: kind, OwnerID: ownerID, ProfileID: id}, nil
}

// MarkComputed implements ProfileStore.
func (s *MemoryStore) MarkComputed(_ context.Context, ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		p, ok := s.profiles[id]
		if !ok {
			continue
		}
		stamp := at
		p.ComputedAt = &stamp
		s.profiles[id] = p
	}
	return nil
}

// UpsertRawScore implements ScoreStore.
func (s *MemoryStore) UpsertRawScore(_ context.Context, score model.RawScore) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	key := scoreKey{user: score.UserProfileID, item: score.ItemProfileID, method: score.Method}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.scores[key]; exists {
		return false, nil
	}
	if score.CreatedAt.IsZero() {
		score.CreatedAt = s.now().UTC()
	}
	s.scores[key] = score
	return true, nil
}

// PendingPairs implements ScoreStore.
func (s *MemoryStore) PendingPairs(_ context.Context, method string) ([]model.PairTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := distinctValues(s.owners[model.OwnerUser])
	items := distinctValues(s.owners[model.OwnerOpportunity])

	var out []model.PairTask
	for _, u := range users {
		for _, i := range items {
			if _, done := s.scores[scoreKey{user: u, item: i, method: method}]; done {
				continue
			}
			out = append(out, model.PairTask{UserProfileID: u, ItemProfileID: i, Method: method})
		}
	}
	return out, nil
}

// ScoresForUser implements ScoreStore.
func (s *MemoryStore) ScoresForUser(_ context.Context, userProfileID, method string) ([]model.RawScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.RawScore
	for k, v := range s.scores {
		if k.user == userProfileID && k.method == method {
			out = append(out, v)
		}
	}
	sortScores(out)
	return out, nil
}

// Scores implements ScoreStore.
func (s *MemoryStore) Scores(_ context.Context, method string) ([]model.RawScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.RawScore
	for k, v := range s.scores {
		if k.method == method {
			out = append(out, v)
		}
	}
	sortScores(out)
	return out, nil
}

// CountScores implements ScoreStore.
func (s *MemoryStore) CountScores(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scores), nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

func distinctValues(m map[string]string) []string {
	seen := make(map[string]struct{}, len(m))
	out := make([]string, 0, len(m))
	for _, v := range m {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortScores(scores []model.RawScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].UserProfileID != scores[j].UserProfileID {
			return scores[i].UserProfileID < scores[j].UserProfileID
		}
		return scores[i].ItemProfileID < scores[j].ItemProfileID
	})
}
