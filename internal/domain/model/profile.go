package model

import "time"

// ScoreMethodRawSimilarity tags scores produced by the collection distance.
const ScoreMethodRawSimilarity = "raw_similarity"

// TagProfile is the canonical identity of one distinct set of tag ids.
type TagProfile struct {
	ID         string
	Hash       string
	CreatedAt  time.Time
	ComputedAt *time.Time // nil until a scoring pass has covered the profile
}

// RawScore is a directed, method-tagged distance between two profiles.
type RawScore struct {
	UserProfileID string
	ItemProfileID string
	Method        string
	Score         float64
	CreatedAt     time.Time
}

// OwnerKind names the entity type pointing at a profile.
type OwnerKind string

// Owner kinds. Users are scored against opportunities.
const (
	OwnerUser        OwnerKind = "user"
	OwnerOpportunity OwnerKind = "opportunity"
)

// Valid reports whether k is a known owner kind.
func (k OwnerKind) Valid() bool {
	return k == OwnerUser || k == OwnerOpportunity
}

// ProfileOwner records which profile an entity currently points at.
type ProfileOwner struct {
	Kind      OwnerKind
	OwnerID   string
	ProfileID string
}

// PairTask is one unit of scoring work flowing through the queue.
type PairTask struct {
	UserProfileID string
	ItemProfileID string
	Method        string
}

// Key identifies the task for deduplication.
func (p PairTask) Key() string {
	return p.Method + ":" + p.UserProfileID + ":" + p.ItemProfileID
}
