package crosswalk

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// CodeTable is the external per-code crosswalk store. Lookup returns the
// codes in to that correspond to code in from, using one direct table.
type CodeTable interface {
	Lookup(ctx context.Context, hop Hop, code string) ([]string, error)
}

// Translator walks crosswalk paths through a CodeTable.
type Translator struct {
	table CodeTable
}

// NewTranslator creates a translator backed by table.
func NewTranslator(table CodeTable) *Translator {
	return &Translator{table: table}
}

// Translate maps code into the target classification, fanning out across
// every intermediate scheme. The result is sorted and de-duplicated. An
// empty result with a nil error means the chain had no matching codes.
func (t *Translator) Translate(ctx context.Context, code OccupationCode, to Classification) ([]OccupationCode, error) {
	if code.Classification == to {
		return []OccupationCode{code}, nil
	}
	hops := Pairs(code.Classification, to)
	if len(hops) == 0 {
		return nil, fmt.Errorf("%w: %s to %s", ErrUnsupportedCrosswalk, code.Classification, to)
	}

	frontier := []string{code.Code}
	for _, hop := range hops {
		seen := make(map[string]struct{})
		var next []string
		for _, c := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("translate cancelled: %w", err)
			}
			mapped, err := t.table.Lookup(ctx, hop, c)
			if err != nil {
				return nil, fmt.Errorf("lookup %s -> %s for %q: %w", hop.From, hop.To, c, err)
			}
			for _, m := range mapped {
				if _, dup := seen[m]; dup {
					continue
				}
				seen[m] = struct{}{}
				next = append(next, m)
			}
		}
		if len(next) == 0 {
			return []OccupationCode{}, nil
		}
		frontier = next
	}

	slices.Sort(frontier)
	out := make([]OccupationCode, len(frontier))
	for i, c := range frontier {
		out[i] = OccupationCode{Classification: to, Code: c}
	}
	return out, nil
}

// MapTable is an in-memory CodeTable.
type MapTable struct {
	mu      sync.RWMutex
	entries map[Hop]map[string][]string
}

// NewMapTable creates an empty table.
func NewMapTable() *MapTable {
	return &MapTable{entries: make(map[Hop]map[string][]string)}
}

// Add records that code in hop.From maps to each of targets in hop.To.
func (m *MapTable) Add(hop Hop, code string, targets ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byCode, ok := m.entries[hop]
	if !ok {
		byCode = make(map[string][]string)
		m.entries[hop] = byCode
	}
	byCode[code] = append(byCode[code], targets...)
}

// Lookup implements CodeTable.
func (m *MapTable) Lookup(_ context.Context, hop Hop, code string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byCode, ok := m.entries[hop]
	if !ok {
		return nil, nil
	}
	return slices.Clone(byCode[code]), nil
}
