package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/skillmatch/internal/adapters/repository"
	service "github.com/okian/skillmatch/internal/app"
	"github.com/okian/skillmatch/internal/config"
	"github.com/okian/skillmatch/internal/seed"
	"github.com/okian/skillmatch/pkg/logger"
)

// Default configuration constants.
const (
	defaultTags          = 500
	defaultInterests     = 50
	defaultCategories    = 12
	defaultSubCategories = 4
	defaultDimensions    = 32
	defaultUsers         = 1000
	defaultOpportunities = 200
	defaultMinTags       = 1
	defaultMaxTags       = 8
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultSeedTimeout   = 30 * time.Minute
)

func main() {
	var (
		tags          = flag.Int("tags", defaultTags, "Skill tags to generate")
		interests     = flag.Int("interests", defaultInterests, "Interest tags to generate")
		categories    = flag.Int("categories", defaultCategories, "Skill categories")
		subCategories = flag.Int("subcategories", defaultSubCategories, "Sub-categories per category")
		dims          = flag.Int("dims", defaultDimensions, "Embedding dimensions")
		users         = flag.Int("users", defaultUsers, "Users to create")
		opportunities = flag.Int("opportunities", defaultOpportunities, "Opportunities to create")
		minTags       = flag.Int("min", defaultMinTags, "Minimum tags per owner")
		maxTags       = flag.Int("max", defaultMaxTags, "Maximum tags per owner")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent assignments")
		seedValue     = flag.Uint64("seed", 1, "PRNG seed")
		score         = flag.Bool("score", false, "Run one scoring pass after seeding")
		output        = flag.String("output", "", "Write a JSON summary to this file")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultSeedTimeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		fail("load config: " + err.Error())
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		fail("init logger: " + err.Error())
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Get()

	sum, err := run(ctx, cfg, &seed.Config{
		Tags:          *tags,
		Interests:     *interests,
		Categories:    *categories,
		SubCategories: *subCategories,
		Dimensions:    *dims,
		Users:         *users,
		Opportunities: *opportunities,
		MinTags:       *minTags,
		MaxTags:       *maxTags,
		Workers:       *workers,
		Seed:          *seedValue,
		RunBatch:      *score,
		OutputFile:    *output,
	})
	if err != nil {
		log.Fatal(ctx, "seed failed", logger.Error(err))
	}
	log.Info(ctx, "seed complete",
		logger.Int("profiles", sum.Profiles),
		logger.Duration("duration", sum.Duration),
	)
}

// run opens the configured store, starts a scheduler-less service over it and
// seeds it. Store and service are closed before returning.
func run(ctx context.Context, cfg *config.Config, seedCfg *seed.Config) (seed.Summary, error) {
	store, err := repository.Open(ctx, cfg.StorageDriver, cfg.SQLitePath)
	if err != nil {
		return seed.Summary{}, fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	svc := service.New(store,
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithProfileCacheSize(cfg.ProfileCacheSize),
		service.WithSchedule(0, cfg.BatchTimeout()),
		service.WithRanking(false),
	)
	if err := svc.Start(ctx); err != nil {
		return seed.Summary{}, fmt.Errorf("start service: %w", err)
	}
	defer func() { _ = svc.Stop(context.WithoutCancel(ctx)) }()

	return seed.Run(ctx, seedCfg, store, svc, svc)
}

func fail(msg string) {
	_, _ = os.Stderr.WriteString(msg + "\n")
	os.Exit(1)
}
