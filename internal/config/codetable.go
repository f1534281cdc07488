package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/skillmatch/internal/domain/crosswalk"
)

// codeTableFile is the YAML layout of an occupation code table:
//
//	hops:
//	  - from: anzsco-2013
//	    to: isco-2008
//	    codes:
//	      - code: "261312"
//	        targets: ["2512"]
type codeTableFile struct {
	Hops []codeTableHop `koanf:"hops"`
}

type codeTableHop struct {
	From  string          `koanf:"from"`
	To    string          `koanf:"to"`
	Codes []codeTableCode `koanf:"codes"`
}

type codeTableCode struct {
	Code    string   `koanf:"code"`
	Targets []string `koanf:"targets"`
}

// LoadCodeTable reads a YAML code table. Every hop must be a direct edge of
// the crosswalk graph.
func LoadCodeTable(path string) (*crosswalk.MapTable, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: code table %s: %w", ErrLoadConfig, path, err)
	}

	var raw codeTableFile
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: code table %s: %w", ErrLoadConfig, path, err)
	}

	table := crosswalk.NewMapTable()
	for i, h := range raw.Hops {
		from, to := crosswalk.Classification(h.From), crosswalk.Classification(h.To)
		if !from.Valid() || !to.Valid() {
			return nil, fmt.Errorf("%w: code table hop %d: unknown classification %q -> %q", ErrInvalidConfig, i, h.From, h.To)
		}
		hops := crosswalk.Pairs(from, to)
		if len(hops) != 1 {
			return nil, fmt.Errorf("%w: code table hop %d: %s -> %s is not a direct crosswalk", ErrInvalidConfig, i, from, to)
		}
		for _, c := range h.Codes {
			if c.Code == "" {
				return nil, fmt.Errorf("%w: code table hop %d: empty code", ErrInvalidConfig, i)
			}
			table.Add(hops[0], c.Code, c.Targets...)
		}
	}
	return table, nil
}
