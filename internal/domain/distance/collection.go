package distance

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/okian/skillmatch/internal/domain/model"
)

// CollectionDistance sums greedy nearest-neighbour TagDistance matches
// between two non-empty tag collections.
//
// The longer collection is the "large" side and each of its elements can be
// matched once. Every tag of the small side, in order, takes the closest
// unused large tag; the first candidate wins a distance tie. The total is not
// normalized by size.
//
// When both sides have the same length, a stays large unless its id sequence
// orders before b's. Roles therefore depend only on the collections and never
// on argument order, which keeps the result symmetric.
func CollectionDistance(a, b []model.Tag) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("%w: both arrays must have at least one element", ErrInvalidInput)
	}

	large, small := a, b
	if len(b) > len(a) || (len(b) == len(a) && compareIDs(a, b) < 0) {
		large, small = b, a
	}

	used := make([]bool, len(large))
	total := 0.0
	for i := range small {
		best := -1
		bestDist := math.Inf(1)
		for j := range large {
			if used[j] {
				continue
			}
			d, err := TagDistance(&small[i], &large[j])
			if err != nil {
				return 0, err
			}
			if d < bestDist {
				best, bestDist = j, d
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		total += bestDist
	}
	return total, nil
}

func compareIDs(a, b []model.Tag) int {
	return slices.CompareFunc(a, b, func(x, y model.Tag) int {
		return strings.Compare(x.ID, y.ID)
	})
}
