// Package service wires storage, profile resolution, scoring runs and the
// recommendation index into one long-running scorer.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/skillmatch/internal/adapters/repository"
	"github.com/okian/skillmatch/internal/batch"
	"github.com/okian/skillmatch/internal/domain/crosswalk"
	"github.com/okian/skillmatch/internal/domain/dedupe"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/internal/domain/profile"
	"github.com/okian/skillmatch/internal/domain/ranking"
	"github.com/okian/skillmatch/internal/domain/scoring"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

// Service owns the scorer's components and its batch schedule.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	resolver   *profile.Resolver
	scorer     *scoring.CollectionScorer
	settled    dedupe.Deduper
	job        *batch.Job
	index      *ranking.Index
	translator *crosswalk.Translator
	codeTable  crosswalk.CodeTable

	workerCount      int
	queueSize        int
	dedupeSize       int
	profileCacheSize int
	tagCacheSize     int
	tagCacheTTL      time.Duration
	interval         time.Duration
	batchTimeout     time.Duration
	rankingEnabled   bool

	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	logger logger.Logger
}

// New constructs a Service over store. Components are built by Start.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:            store,
		codeTable:        crosswalk.NewMapTable(),
		workerCount:      runtime.NumCPU() * 2,
		queueSize:        100_000,
		dedupeSize:       500_000,
		profileCacheSize: 10_000,
		tagCacheSize:     20_000,
		tagCacheTTL:      time.Minute,
		interval:         time.Minute,
		batchTimeout:     15 * time.Minute,
		rankingEnabled:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components, warms the ranking index and launches the
// batch scheduler. Starting twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting scorer service...")

	resolver, err := profile.NewResolver(s.store, s.store, profile.WithCacheSize(s.profileCacheSize))
	if err != nil {
		return fmt.Errorf("profile resolver: %w", err)
	}
	s.resolver = resolver
	s.scorer = scoring.NewCollectionScorer(s.store, scoring.WithTagCache(s.tagCacheSize, s.tagCacheTTL))
	s.settled = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.translator = crosswalk.NewTranslator(s.codeTable)

	jobOpts := []batch.Option{
		batch.WithWorkers(s.workerCount),
		batch.WithQueueSize(s.queueSize),
		batch.WithDeduper(s.settled),
	}
	if s.rankingEnabled {
		s.index = ranking.NewIndex()
		if err := s.index.Warm(ctx, s.store); err != nil {
			return err
		}
		jobOpts = append(jobOpts, batch.WithSink(s.index))
	}
	s.job = batch.NewJob(s.store, s.scorer, jobOpts...)

	s.done = make(chan struct{})
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.schedule(loopCtx)

	s.started = true
	s.logger.Info(ctx, "scorer service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("interval", s.interval),
		logger.Bool("ranking", s.rankingEnabled),
	)
	return nil
}

// schedule runs a batch immediately and then every interval. A run that is
// still in progress when the next tick fires makes that tick a no-op.
func (s *Service) schedule(ctx context.Context) {
	defer close(s.done)
	if s.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunBatch(ctx); err != nil && !errors.Is(err, batch.ErrRunInProgress) {
			s.logger.Warn(ctx, "scheduled scoring run ended with error", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop cancels any running batch and waits for the scheduler to exit.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping scorer service...")
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("stop scorer service: %w", ctx.Err())
	}
	s.logger.Info(ctx, "scorer service stopped")
	return nil
}

// RunBatch performs one time-boxed scoring run.
func (s *Service) RunBatch(ctx context.Context) (batch.Report, error) {
	job, err := s.component()
	if err != nil {
		return batch.Report{}, err
	}
	runCtx, cancel := context.WithTimeout(ctx, s.batchTimeout)
	defer cancel()

	rep, err := job.Run(runCtx)
	if total, cerr := s.store.CountScores(ctx); cerr == nil {
		metrics.UpdateTotalScores(total)
	}
	return rep, err
}

func (s *Service) component() (*batch.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.job == nil {
		return nil, ErrNotStarted
	}
	return s.job, nil
}

// AssignProfile resolves tagIDs to a profile and points the owner at it.
// A previous profile and its scores stay in storage as history.
func (s *Service) AssignProfile(ctx context.Context, kind model.OwnerKind, ownerID string, tagIDs []string) (model.ProfileOwner, error) {
	if !kind.Valid() || ownerID == "" {
		return model.ProfileOwner{}, fmt.Errorf("%w: %s/%q", repository.ErrInvalidOwner, kind, ownerID)
	}
	s.mu.RLock()
	resolver := s.resolver
	s.mu.RUnlock()
	if resolver == nil {
		return model.ProfileOwner{}, ErrNotStarted
	}

	p, err := resolver.Resolve(ctx, tagIDs)
	if err != nil {
		return model.ProfileOwner{}, err
	}
	owner := model.ProfileOwner{Kind: kind, OwnerID: ownerID, ProfileID: p.ID}
	if err := s.store.AssignProfile(ctx, owner); err != nil {
		return model.ProfileOwner{}, fmt.Errorf("assign profile: %w", err)
	}
	s.logger.Debug(ctx, "profile assigned",
		logger.String("kind", string(kind)),
		logger.String("ownerID", ownerID),
		logger.String("profileID", p.ID),
	)
	return owner, nil
}

// Recommend returns the n closest opportunity profiles for a user.
func (s *Service) Recommend(ctx context.Context, userID string, n int) ([]ranking.Entry, error) {
	owner, err := s.store.Owner(ctx, model.OwnerUser, userID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	index := s.index
	s.mu.RUnlock()
	if index != nil {
		entries, err := index.TopN(owner.ProfileID, n)
		if errors.Is(err, ranking.ErrNotFound) {
			return []ranking.Entry{}, nil
		}
		return entries, err
	}

	// Without the index, rank the stored scores of this user on the fly.
	scores, err := s.store.ScoresForUser(ctx, owner.ProfileID, model.ScoreMethodRawSimilarity)
	if err != nil {
		return nil, err
	}
	tmp := ranking.NewIndex()
	for _, sc := range scores {
		tmp.Upsert(sc.UserProfileID, sc.ItemProfileID, sc.Score)
	}
	entries, err := tmp.TopN(owner.ProfileID, n)
	if errors.Is(err, ranking.ErrNotFound) {
		return []ranking.Entry{}, nil
	}
	return entries, err
}

// CrosswalkPath returns the classifications a translation from -> to passes.
func (s *Service) CrosswalkPath(from, to crosswalk.Classification) []crosswalk.Classification {
	return crosswalk.Path(from, to)
}

// Translate maps an occupation code into another classification.
func (s *Service) Translate(ctx context.Context, code crosswalk.OccupationCode, to crosswalk.Classification) ([]crosswalk.OccupationCode, error) {
	s.mu.RLock()
	t := s.translator
	s.mu.RUnlock()
	if t == nil {
		return nil, ErrNotStarted
	}
	return t.Translate(ctx, code, to)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"ranking":     s.rankingEnabled,
	}
	if !s.started {
		return stats
	}

	if total, err := s.store.CountScores(ctx); err == nil {
		stats["totalScores"] = total
		metrics.UpdateTotalScores(total)
	}
	stats["settledPairs"] = s.settled.Size()
	stats["batchRunning"] = s.job.Running()
	if rep, ok := s.job.LastReport(); ok {
		stats["lastBatch"] = rep
	}
	if s.index != nil {
		users, entries := s.index.Count()
		stats["rankingUsers"] = users
		stats["rankingEntries"] = entries
	}
	return stats
}
