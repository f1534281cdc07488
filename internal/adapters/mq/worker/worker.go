// Package worker scores queued pair tasks and persists the results.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/skillmatch/internal/domain/distance"
	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

const defaultWorkerMultiplier = 2

// Task is what workers read off the queue.
type Task = model.PairTask

// Scorer computes the raw score of a pair.
type Scorer interface {
	Score(ctx context.Context, task model.PairTask) (model.RawScore, error)
}

// Writer persists scores. Duplicates are ignored and reported as false.
type Writer interface {
	UpsertRawScore(ctx context.Context, score model.RawScore) (bool, error)
}

// Queue defines how workers receive tasks.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Task
}

// Sink observes scores right after they are inserted.
type Sink interface {
	Observe(score model.RawScore)
}

// Releaser forgets a settled pair key so the pair is retried later.
type Releaser interface {
	Unrecord(ctx context.Context, key string)
}

// Acker is told when a task leaves a worker.
type Acker interface {
	Ack(key string)
}

// Tally counts task outcomes. It is shared by every worker of a pool.
type Tally struct {
	scored     atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
	duplicates atomic.Int64
	dropped    atomic.Int64
}

// Counts is a point-in-time copy of a Tally.
type Counts struct {
	Scored     int
	Skipped    int
	Failed     int
	Duplicates int
	Dropped    int
}

// Snapshot returns the current counts.
func (t *Tally) Snapshot() Counts {
	return Counts{
		Scored:     int(t.scored.Load()),
		Skipped:    int(t.skipped.Load()),
		Failed:     int(t.failed.Load()),
		Duplicates: int(t.duplicates.Load()),
		Dropped:    int(t.dropped.Load()),
	}
}

// InMemoryWorker drains the queue until it is closed or ctx ends.
type InMemoryWorker struct {
	queue  Queue
	scorer Scorer
	writer Writer
	tally  *Tally
	cfg    settings

	done chan struct{}
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, scorer Scorer, writer Writer, tally *Tally, opts ...Option) *InMemoryWorker {
	cfg := settings{name: "worker"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named(cfg.name)
	}
	if tally == nil {
		tally = &Tally{}
	}
	return &InMemoryWorker{
		queue:  q,
		scorer: scorer,
		writer: writer,
		tally:  tally,
		cfg:    cfg,
		done:   make(chan struct{}),
	}
}

// Run processes tasks until the queue channel closes or ctx ends.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			w.process(ctx, t)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, t Task) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		if w.cfg.acker != nil {
			w.cfg.acker.Ack(t.Key())
		}
	}()

	score, err := w.scorer.Score(ctx, t)
	switch {
	case err == nil:
	case errors.Is(err, distance.ErrInvalidInput):
		// Stays settled: the pair cannot be scored until its tags change.
		w.tally.skipped.Add(1)
		metrics.RecordPairSkipped()
		w.cfg.logger.Warn(ctx, "skipping unscorable pair",
			logger.String("pair", t.Key()),
			logger.Error(err),
		)
		return
	case ctx.Err() != nil:
		w.tally.dropped.Add(1)
		w.release(ctx, t)
		return
	default:
		w.fail(ctx, t, "scoring_error", err)
		return
	}

	inserted, err := w.writer.UpsertRawScore(ctx, score)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		w.tally.dropped.Add(1)
		w.release(ctx, t)
		return
	default:
		w.fail(ctx, t, "write_error", err)
		return
	}
	if !inserted {
		w.tally.duplicates.Add(1)
		metrics.RecordPairDuplicate()
		return
	}

	w.tally.scored.Add(1)
	metrics.RecordPairScored()
	if w.cfg.sink != nil {
		w.cfg.sink.Observe(score)
	}
}

func (w *InMemoryWorker) fail(ctx context.Context, t Task, kind string, err error) {
	w.tally.failed.Add(1)
	metrics.RecordPairFailed()
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", kind)
	w.cfg.logger.Error(ctx, "pair failed, will retry next run",
		logger.String("pair", t.Key()),
		logger.String("kind", kind),
		logger.Error(err),
	)
	w.release(ctx, t)
}

func (w *InMemoryWorker) release(ctx context.Context, t Task) {
	if w.cfg.releaser != nil {
		w.cfg.releaser.Unrecord(context.WithoutCancel(ctx), t.Key())
	}
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	tally   *Tally
	logger  logger.Logger
	wg      sync.WaitGroup
}

// NewPool creates a pool. workerCount < 1 falls back to a CPU based default.
func NewPool(workerCount int, q Queue, scorer Scorer, writer Writer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		tally:   &Tally{},
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, scorer, writer, p.tally, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.Run(ctx)
		}()
	}
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
	metrics.UpdateWorkerCount(0)
}

// Shutdown waits for the workers or gives up when ctx ends.
func (p *Pool) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out", logger.Int("workers", len(p.workers)))
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Counts returns the outcome counts so far.
func (p *Pool) Counts() Counts {
	return p.tally.Snapshot()
}
