// Package repository holds the storage collaborators of the scoring core:
// the tag catalog, tag profiles with their owners, and raw scores.
package repository

import (
	"context"
	"time"

	"github.com/okian/skillmatch/internal/domain/model"
)

// TagCatalog provides read/write access to catalog tags.
type TagCatalog interface {
	// PutTag inserts or replaces a catalog entry.
	PutTag(ctx context.Context, tag model.Tag) error
	// DeprecateTag soft-deprecates a tag. Returns ErrNotFound for unknown ids.
	DeprecateTag(ctx context.Context, id string, at time.Time) error
	// TagsByIDs returns the known tags among ids, deprecated ones included.
	TagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error)
	// TagsByProfile returns the non-deprecated member tags of a profile in
	// the given namespace, ordered by tag id.
	TagsByProfile(ctx context.Context, profileID string, ns model.Namespace) ([]model.Tag, error)
}

// ProfileStore persists tag profiles and the entities pointing at them.
type ProfileStore interface {
	// FindProfileByHash returns ErrNotFound when no profile has the hash.
	FindProfileByHash(ctx context.Context, hash string) (model.TagProfile, error)
	// ResolveProfile looks the hash up and, only when absent, inserts the
	// profile and its membership rows in the same transaction. The bool
	// reports whether a new profile was created.
	ResolveProfile(ctx context.Context, hash string, tagIDs []string) (model.TagProfile, bool, error)
	// Profile returns ErrNotFound for unknown ids.
	Profile(ctx context.Context, id string) (model.TagProfile, error)
	// AssignProfile points an owner at a profile, replacing any previous one.
	AssignProfile(ctx context.Context, owner model.ProfileOwner) error
	// Owner returns ErrNotFound when the entity has no profile yet.
	Owner(ctx context.Context, kind model.OwnerKind, ownerID string) (model.ProfileOwner, error)
	// MarkComputed stamps computed_at on the given profiles.
	MarkComputed(ctx context.Context, ids []string, at time.Time) error
}

// ScoreStore persists raw scores.
type ScoreStore interface {
	// UpsertRawScore inserts a score and ignores duplicates on
	// (user profile, item profile, method). The bool reports an insert.
	UpsertRawScore(ctx context.Context, score model.RawScore) (bool, error)
	// PendingPairs lists user x opportunity profile pairs with no score for
	// method, ordered by user then item profile id.
	PendingPairs(ctx context.Context, method string) ([]model.PairTask, error)
	// ScoresForUser lists all scores of a user profile for method.
	ScoresForUser(ctx context.Context, userProfileID, method string) ([]model.RawScore, error)
	// Scores lists every score for method.
	Scores(ctx context.Context, method string) ([]model.RawScore, error)
	// CountScores returns the number of stored scores across methods.
	CountScores(ctx context.Context) (int, error)
}

// Store bundles every collaborator the scoring core consumes.
type Store interface {
	TagCatalog
	ProfileStore
	ScoreStore
	Close() error
}
