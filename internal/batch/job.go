// Package batch runs scoring passes over every unscored user/item profile pair.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/skillmatch/internal/adapters/mq/queue"
	"github.com/okian/skillmatch/internal/adapters/mq/worker"
	"github.com/okian/skillmatch/internal/domain/dedupe"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

const (
	defaultQueueSize = 100_000
	enqueueBackoff   = 2 * time.Millisecond
)

// Run statuses recorded in metrics.
const (
	StatusOK        = "ok"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Store is the storage a run needs.
type Store interface {
	PendingPairs(ctx context.Context, method string) ([]model.PairTask, error)
	UpsertRawScore(ctx context.Context, score model.RawScore) (bool, error)
	MarkComputed(ctx context.Context, ids []string, at time.Time) error
}

// Report summarises one run.
type Report struct {
	Pending    int           `json:"pending"`
	Settled    int           `json:"settled"`
	Enqueued   int           `json:"enqueued"`
	Scored     int           `json:"scored"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Duplicates int           `json:"duplicates"`
	Dropped    int           `json:"dropped"`
	Computed   int           `json:"computed"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
}

// Job scores pending pairs. A Job is safe for concurrent use; overlapping
// runs are rejected.
type Job struct {
	store     Store
	scorer    worker.Scorer
	settled   dedupe.Deduper
	sink      worker.Sink
	method    string
	workers   int
	queueSize int
	now       func() time.Time
	logger    logger.Logger

	running atomic.Bool
	last    atomic.Pointer[Report]
}

// NewJob creates a job with configuration options.
func NewJob(store Store, scorer worker.Scorer, opts ...Option) *Job {
	j := &Job{
		store:     store,
		scorer:    scorer,
		method:    model.ScoreMethodRawSimilarity,
		workers:   runtime.NumCPU() * 2,
		queueSize: defaultQueueSize,
		now:       time.Now,
		logger:    logger.Get().Named("batch"),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.settled == nil {
		j.settled = dedupe.NewInMemoryDeduper()
	}
	return j
}

// Running reports whether a run is in progress.
func (j *Job) Running() bool { return j.running.Load() }

// LastReport returns the report of the last finished run, if any.
func (j *Job) LastReport() (Report, bool) {
	r := j.last.Load()
	if r == nil {
		return Report{}, false
	}
	return *r, true
}

// Run performs one scoring pass. Per-pair failures never abort the run.
// When ctx ends early the remaining tasks are dropped and released; the
// partial report is returned together with the context error.
func (j *Job) Run(ctx context.Context) (Report, error) {
	if !j.running.CompareAndSwap(false, true) {
		return Report{}, ErrRunInProgress
	}
	defer j.running.Store(false)

	rep := Report{StartedAt: j.now().UTC()}
	start := time.Now()

	pairs, err := j.store.PendingPairs(ctx, j.method)
	if err != nil {
		j.finish(ctx, &rep, start, StatusFailed)
		return rep, fmt.Errorf("%w: %w", ErrPendingPairs, err)
	}
	rep.Pending = len(pairs)
	metrics.UpdatePendingPairs(len(pairs))
	j.logger.Info(ctx, "scoring run started", logger.Int("pending", len(pairs)))

	q := queue.NewInMemoryQueue(queue.WithCapacity(min(max(len(pairs), 1), j.queueSize)))
	tracker := &inflight{keys: make(map[string]struct{})}
	pool := worker.NewPool(j.workers, q, j.scorer, j.store,
		worker.WithSink(j.sink),
		worker.WithReleaser(j.settled),
		worker.WithAcker(tracker),
	)
	pool.Start(ctx)

	touched := make(map[string]struct{})
	for i, p := range pairs {
		if j.settled.SeenAndRecord(ctx, p.Key()) {
			rep.Settled++
			continue
		}
		tracker.add(p.Key())
		if !j.enqueue(ctx, q, p) {
			tracker.Ack(p.Key())
			j.settled.Unrecord(ctx, p.Key())
			rep.Dropped++
			j.countUnqueued(ctx, pairs[i+1:], &rep)
			break
		}
		rep.Enqueued++
		touched[p.UserProfileID] = struct{}{}
		touched[p.ItemProfileID] = struct{}{}
	}
	_ = q.Close()
	pool.Wait()

	// Workers stop on ctx end; tasks they never finished are released.
	for _, key := range tracker.remaining() {
		j.settled.Unrecord(ctx, key)
		rep.Dropped++
	}

	counts := pool.Counts()
	rep.Scored = counts.Scored
	rep.Skipped = counts.Skipped
	rep.Failed = counts.Failed
	rep.Duplicates = counts.Duplicates
	rep.Dropped += counts.Dropped

	if ctx.Err() != nil {
		j.finish(ctx, &rep, start, StatusCancelled)
		return rep, fmt.Errorf("scoring run stopped early: %w", ctx.Err())
	}

	if err := j.markComputed(ctx, touched, &rep); err != nil {
		j.logger.Warn(ctx, "failed to stamp computed profiles", logger.Error(err))
	}
	j.finish(ctx, &rep, start, StatusOK)
	return rep, nil
}

// countUnqueued classifies pairs that were never offered to the queue
// because the run ended: settled ones stay settled, the rest are dropped.
func (j *Job) countUnqueued(ctx context.Context, rest []model.PairTask, rep *Report) {
	for _, p := range rest {
		if j.settled.Seen(ctx, p.Key()) {
			rep.Settled++
			continue
		}
		rep.Dropped++
	}
}

func (j *Job) enqueue(ctx context.Context, q queue.Queue, p model.PairTask) bool {
	for {
		err := q.Enqueue(ctx, p)
		if err == nil {
			return true
		}
		if !errors.Is(err, queue.ErrFull) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(enqueueBackoff):
		}
	}
}

// markComputed stamps profiles touched by this run that have no pending
// pair left.
func (j *Job) markComputed(ctx context.Context, touched map[string]struct{}, rep *Report) error {
	if len(touched) == 0 {
		return nil
	}
	remaining, err := j.store.PendingPairs(ctx, j.method)
	if err != nil {
		return err
	}
	for _, p := range remaining {
		delete(touched, p.UserProfileID)
		delete(touched, p.ItemProfileID)
	}
	if len(touched) == 0 {
		return nil
	}
	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	if err := j.store.MarkComputed(ctx, ids, j.now().UTC()); err != nil {
		return err
	}
	rep.Computed = len(ids)
	return nil
}

func (j *Job) finish(ctx context.Context, rep *Report, start time.Time, status string) {
	rep.Duration = time.Since(start)
	metrics.RecordBatchRun(status, rep.Duration.Seconds(), time.Now().Unix())
	snapshot := *rep
	j.last.Store(&snapshot)

	j.logger.Info(ctx, "scoring run finished",
		logger.String("status", status),
		logger.Int("pending", rep.Pending),
		logger.Int("enqueued", rep.Enqueued),
		logger.Int("scored", rep.Scored),
		logger.Int("skipped", rep.Skipped),
		logger.Int("failed", rep.Failed),
		logger.Int("duplicates", rep.Duplicates),
		logger.Int("settled", rep.Settled),
		logger.Int("dropped", rep.Dropped),
		logger.Duration("took", rep.Duration),
	)
}

// inflight tracks enqueued keys until a worker acknowledges them.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (f *inflight) add(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = struct{}{}
}

func (f *inflight) Ack(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}

func (f *inflight) remaining() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.keys))
	for k := range f.keys {
		out = append(out, k)
	}
	return out
}
