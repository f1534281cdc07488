package seed

import (
	"fmt"
	"time"

	"github.com/okian/skillmatch/internal/batch"
)

// Config holds configuration for one seeding run.
type Config struct {
	Tags          int    // Number of skill tags to write
	Interests     int    // Number of interest tags to write
	Categories    int    // Skill categories
	SubCategories int    // Sub-categories per category
	Dimensions    int    // Embedding length
	Users         int    // Users to create
	Opportunities int    // Opportunities to create
	MinTags       int    // Lower bound of tags per owner
	MaxTags       int    // Upper bound of tags per owner
	Workers       int    // Concurrent profile assignments
	Seed          uint64 // PRNG seed; catalog ids depend on it
	RunBatch      bool   // Score pending pairs once after seeding
	OutputFile    string // Optional JSON summary path
}

// Validate checks the bounds of the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Tags <= 0:
		return fmt.Errorf("%w: tags must be positive", ErrInvalidConfig)
	case c.Interests < 0:
		return fmt.Errorf("%w: interests must not be negative", ErrInvalidConfig)
	case c.Categories <= 0 || c.SubCategories <= 0:
		return fmt.Errorf("%w: categories and sub-categories must be positive", ErrInvalidConfig)
	case c.Dimensions <= 0:
		return fmt.Errorf("%w: dimensions must be positive", ErrInvalidConfig)
	case c.Users < 0 || c.Opportunities < 0:
		return fmt.Errorf("%w: owner counts must not be negative", ErrInvalidConfig)
	case c.MinTags < 0 || c.MaxTags < c.MinTags:
		return fmt.Errorf("%w: tags per owner must satisfy 0 <= min <= max", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	return nil
}

// Summary reports what a run wrote.
type Summary struct {
	SkillTags     int           `json:"skillTags"`
	InterestTags  int           `json:"interestTags"`
	Users         int           `json:"users"`
	Opportunities int           `json:"opportunities"`
	Profiles      int           `json:"profiles"`
	Batch         *batch.Report `json:"batch,omitempty"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
	Duration      time.Duration `json:"duration"`
}
