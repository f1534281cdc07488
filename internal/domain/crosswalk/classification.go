// Package crosswalk translates occupation codes between classification
// schemes by walking a fixed graph of published crosswalk tables.
package crosswalk

import (
	"fmt"
	"strings"
)

// Classification names an occupation classification scheme.
type Classification string

// Supported classifications. ISCO-2008 is the hub most tables connect to.
const (
	ISCO2008   Classification = "isco-2008"
	ANZSCO2013 Classification = "anzsco-2013"
	UKSOC2010  Classification = "uksoc-2010"
	UKSOC2020  Classification = "uksoc-2020"
	USSOC2010  Classification = "ussoc-2010"
	USSOC2018  Classification = "ussoc-2018"
	ONET2019   Classification = "onet-2019"
	NOC2016    Classification = "noc-2016"
	NOC2021    Classification = "noc-2021"
)

// Classifications lists every supported scheme.
func Classifications() []Classification {
	return []Classification{
		ISCO2008, ANZSCO2013, UKSOC2010, UKSOC2020,
		USSOC2010, USSOC2018, ONET2019, NOC2016, NOC2021,
	}
}

// Valid reports whether c is a supported classification.
func (c Classification) Valid() bool {
	_, ok := rules[c]
	return ok
}

// OccupationCode is a single code inside a classification.
type OccupationCode struct {
	Classification Classification
	Code           string
	Label          string
}

// ID returns "{classification}-{code}".
func (o OccupationCode) ID() string {
	return string(o.Classification) + "-" + o.Code
}

// ParseOccupationID splits an id produced by OccupationCode.ID. Scheme names
// contain a dash themselves, so the longest matching known prefix wins.
func ParseOccupationID(id string) (OccupationCode, error) {
	var best Classification
	for _, c := range Classifications() {
		prefix := string(c) + "-"
		if strings.HasPrefix(id, prefix) && len(c) > len(best) {
			best = c
		}
	}
	if best == "" {
		return OccupationCode{}, fmt.Errorf("%w: %q", ErrUnknownClassification, id)
	}
	code := strings.TrimPrefix(id, string(best)+"-")
	if code == "" {
		return OccupationCode{}, fmt.Errorf("%w: empty code in %q", ErrInvalidCode, id)
	}
	return OccupationCode{Classification: best, Code: code}, nil
}
