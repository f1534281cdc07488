// Package seed fills a store with a synthetic tag catalog and owners whose
// tag sets are resolved into profiles, then optionally scores them once.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/skillmatch/internal/batch"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Catalog receives the generated tags.
type Catalog interface {
	PutTag(ctx context.Context, tag model.Tag) error
}

// Assigner resolves a tag set into a profile and points an owner at it.
type Assigner interface {
	AssignProfile(ctx context.Context, kind model.OwnerKind, ownerID string, tagIDs []string) (model.ProfileOwner, error)
}

// BatchRunner scores pending pairs once.
type BatchRunner interface {
	RunBatch(ctx context.Context) (batch.Report, error)
}

// Run writes the catalog, assigns every generated owner and, when
// cfg.RunBatch is set, performs one scoring pass through runner.
func Run(ctx context.Context, cfg *Config, catalog Catalog, assigner Assigner, runner BatchRunner) (Summary, error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	log := logger.Get().Named("seed")
	sum := Summary{StartTime: time.Now()}

	log.Info(ctx, "starting seed run",
		logger.Int("tags", cfg.Tags),
		logger.Int("interests", cfg.Interests),
		logger.Int("users", cfg.Users),
		logger.Int("opportunities", cfg.Opportunities),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed),
	)

	gen := newGenerator(cfg)
	tags := gen.catalog()
	for _, tag := range tags {
		if err := catalog.PutTag(ctx, tag); err != nil {
			return sum, fmt.Errorf("%w: put tag %s: %w", ErrSeed, tag.ID, err)
		}
		if tag.Namespace == model.NamespaceSkill {
			sum.SkillTags++
		} else {
			sum.InterestTags++
		}
	}

	profiles, err := assign(ctx, cfg.Workers, assigner, gen.assignments())
	if err != nil {
		return sum, err
	}
	sum.Users = cfg.Users
	sum.Opportunities = cfg.Opportunities
	sum.Profiles = profiles

	if cfg.RunBatch && runner != nil {
		rep, err := runner.RunBatch(ctx)
		if err != nil {
			return sum, fmt.Errorf("%w: scoring run: %w", ErrSeed, err)
		}
		sum.Batch = &rep
	}

	sum.EndTime = time.Now()
	sum.Duration = sum.EndTime.Sub(sum.StartTime)

	if cfg.OutputFile != "" {
		if err := saveSummary(cfg.OutputFile, &sum); err != nil {
			log.Warn(ctx, "failed to save summary", logger.Error(err))
		}
	}
	log.Info(ctx, "seed run finished",
		logger.Int("skillTags", sum.SkillTags),
		logger.Int("interestTags", sum.InterestTags),
		logger.Int("profiles", sum.Profiles),
		logger.Duration("duration", sum.Duration),
	)
	return sum, nil
}

// assign fans the assignments out over workers and returns the number of
// distinct profiles they resolved to.
func assign(ctx context.Context, workers int, assigner Assigner, plan []Assignment) (int, error) {
	var (
		mu       sync.Mutex
		profiles = make(map[string]struct{}, len(plan))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, a := range plan {
		g.Go(func() error {
			owner, err := assigner.AssignProfile(gctx, a.Kind, a.OwnerID, a.TagIDs)
			if err != nil {
				return fmt.Errorf("%w: assign %s %s: %w", ErrSeed, a.Kind, a.OwnerID, err)
			}
			mu.Lock()
			profiles[owner.ProfileID] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(profiles), nil
}

func saveSummary(path string, sum *Summary) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create summary directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
