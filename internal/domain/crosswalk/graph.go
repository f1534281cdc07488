package crosswalk

import "fmt"

// Hop is one direct crosswalk table lookup.
type Hop struct {
	From Classification
	To   Classification
}

// route sends every target in To through Via. A route with no targets is
// the default for anything not listed elsewhere.
type route struct {
	To  []Classification
	Via Classification
}

// rules is the hand-curated routing table: for each source scheme, which
// neighbour holds the next table towards a given target. Direct tables
// exist for anzsco-2013/isco-2008, uksoc-2010/isco-2008, uksoc-2010/uksoc-2020,
// isco-2008/ussoc-2010, ussoc-2010/ussoc-2018, ussoc-2018/onet-2019,
// ussoc-2018/noc-2016 and noc-2016/noc-2021.
var rules = map[Classification][]route{
	ANZSCO2013: {
		{Via: ISCO2008},
	},
	ISCO2008: {
		{To: []Classification{ANZSCO2013}, Via: ANZSCO2013},
		{To: []Classification{UKSOC2010, UKSOC2020}, Via: UKSOC2010},
		{Via: USSOC2010},
	},
	UKSOC2010: {
		{To: []Classification{UKSOC2020}, Via: UKSOC2020},
		{Via: ISCO2008},
	},
	UKSOC2020: {
		{Via: UKSOC2010},
	},
	USSOC2010: {
		{To: []Classification{ISCO2008, ANZSCO2013, UKSOC2010, UKSOC2020}, Via: ISCO2008},
		{Via: USSOC2018},
	},
	USSOC2018: {
		{To: []Classification{ONET2019}, Via: ONET2019},
		{To: []Classification{NOC2016, NOC2021}, Via: NOC2016},
		{Via: USSOC2010},
	},
	ONET2019: {
		{Via: USSOC2018},
	},
	NOC2016: {
		{To: []Classification{NOC2021}, Via: NOC2021},
		{Via: USSOC2018},
	},
	NOC2021: {
		{Via: NOC2016},
	},
}

// paths holds every expanded route, built once from rules.
var paths = buildPaths(rules)

// nextHop resolves the neighbour of from that leads towards to.
func nextHop(table map[Classification][]route, from, to Classification) (Classification, bool) {
	var fallback Classification
	for _, r := range table[from] {
		if len(r.To) == 0 {
			fallback = r.Via
			continue
		}
		for _, t := range r.To {
			if t == to {
				return r.Via, true
			}
		}
	}
	return fallback, fallback != ""
}

func buildPaths(table map[Classification][]route) map[Hop][]Classification {
	out := make(map[Hop][]Classification)
	for from := range table {
		for to := range table {
			if from == to {
				continue
			}
			var path []Classification
			cur := from
			for cur != to {
				next, ok := nextHop(table, cur, to)
				if !ok {
					path = nil
					break
				}
				if len(path) >= len(table) {
					panic(fmt.Sprintf("crosswalk: routing loop from %s to %s", from, to))
				}
				if _, known := table[next]; !known {
					panic(fmt.Sprintf("crosswalk: route from %s uses unknown scheme %s", cur, next))
				}
				path = append(path, next)
				cur = next
			}
			if len(path) > 0 {
				out[Hop{From: from, To: to}] = path
			}
		}
	}
	return out
}

// Path returns the schemes to visit when translating from one scheme to
// another, ending with to and excluding from. It is empty when from equals
// to and when no route is known; callers must treat the latter as an
// unsupported crosswalk.
func Path(from, to Classification) []Classification {
	p := paths[Hop{From: from, To: to}]
	if len(p) == 0 {
		return []Classification{}
	}
	out := make([]Classification, len(p))
	copy(out, p)
	return out
}

// Pairs returns the table lookups needed to translate from one scheme to
// another, chained from -> path[0] -> ... -> to.
func Pairs(from, to Classification) []Hop {
	path := Path(from, to)
	hops := make([]Hop, 0, len(path))
	prev := from
	for _, next := range path {
		hops = append(hops, Hop{From: prev, To: next})
		prev = next
	}
	return hops
}

// Supported reports whether a route exists between two distinct schemes.
func Supported(from, to Classification) bool {
	return len(paths[Hop{From: from, To: to}]) > 0
}
