package seed

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`skillmatch seed
===============

Writes a synthetic tag catalog and owners into the configured store.

Usage:
  go run ./cmd/seed [options]

Options:
  -tags int           Skill tags to generate (default 500)
  -interests int      Interest tags to generate (default 50)
  -categories int     Skill categories (default 12)
  -subcategories int  Sub-categories per category (default 4)
  -dims int           Embedding dimensions (default 32)
  -users int          Users to create (default 1000)
  -opportunities int  Opportunities to create (default 200)
  -min int            Minimum tags per owner (default 1)
  -max int            Maximum tags per owner (default 8)
  -workers int        Concurrent assignments (default CPU cores * 2)
  -seed uint          PRNG seed (default 1)
  -score              Run one scoring pass after seeding
  -output string      Write a JSON summary to this file
  -help               Show this help message

Storage is selected the same way as for the scorer: SKILLMATCH_STORAGE_DRIVER,
SKILLMATCH_SQLITE_PATH or a config file named by SKILLMATCH_CONFIG.
`)
}
