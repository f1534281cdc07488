// Package distance computes how far apart tags and tag collections are.
//
// Every function here is pure and safe for concurrent use.
package distance

import (
	"fmt"
	"math"

	"github.com/okian/skillmatch/internal/domain/model"
)

// Tier offsets added on top of the embedding distance.
const (
	sameCategoryOffset  = 1.0
	otherCategoryOffset = 2.0
)

// CosineSimilarity returns dot(x, y) / (|x| * |y|) clamped to [-1, 1]. It is
// 0 when either vector has zero norm.
func CosineSimilarity(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("%w: embedding length mismatch (%d != %d)", ErrInvalidInput, len(x), len(y))
	}

	var dot, normX, normY float64
	for i := range x {
		dot += x[i] * y[i]
		normX += x[i] * x[i]
		normY += y[i] * y[i]
	}
	if normX == 0 || normY == 0 {
		return 0, nil
	}
	sim := dot / (math.Sqrt(normX) * math.Sqrt(normY))
	return max(-1, min(1, sim)), nil
}

// CosineDistance is 1 - CosineSimilarity with the similarity floored at 0,
// so the result stays in [0, 1]. Opposed embeddings are as far apart as
// orthogonal ones.
func CosineDistance(x, y []float64) (float64, error) {
	sim, err := CosineSimilarity(x, y)
	if err != nil {
		return 0, err
	}
	return 1 - max(0, sim), nil
}

// TagDistance returns the tiered distance between two tags in [0, 3]:
//
//	same sub-category: cosine distance        [0, 1]
//	same category:     1 + cosine distance    [1, 2]
//	otherwise:         2 + cosine distance    [2, 3]
//
// Identical ids are always 0.
func TagDistance(a, b *model.Tag) (float64, error) {
	if a.ID == b.ID {
		return 0, nil
	}

	cd, err := CosineDistance(a.Embedding, b.Embedding)
	if err != nil {
		return 0, fmt.Errorf("tags %q and %q: %w", a.ID, b.ID, err)
	}

	switch {
	case a.SubCategory == b.SubCategory:
		return cd, nil
	case a.Category == b.Category:
		return sameCategoryOffset + cd, nil
	default:
		return otherCategoryOffset + cd, nil
	}
}
