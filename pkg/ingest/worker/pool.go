// Package worker provides an asynchronous worker pool for bulk page ingestion.
//
// The pool decouples ingestion from its callers so that a CLI walking a
// directory or a watcher reacting to file events does not wait on embedding
// round-trips.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/folio/pkg/ingest"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Ingestor is the subset of *ingest.Ingester the pool drives.
type Ingestor interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
	UpdateText(ctx context.Context, documentID, text string) (*ingest.Result, error)
}

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Source names where the text came from, such as a file path. It is
	// only used for logging and reporting.
	Source string

	// DocumentID, when set, makes the job a text update of that document
	// instead of a new page.
	DocumentID string

	Request ingest.Request
}

// Outcome is reported for every processed job.
type Outcome struct {
	Job    Job
	Result *ingest.Result
	Err    error
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Ingester performs the writes.
	Ingester Ingestor

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// OnDone, when set, is called from the worker goroutine after each job.
	OnDone func(Outcome)

	Logger *slog.Logger
}

// Pool processes ingestion jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines. Jobs run with
// ctx; cancelling it makes in-flight and queued jobs fail fast.
func NewPool(ctx context.Context, c *Config) (*Pool, error) {
	if c.Ingester == nil {
		return nil, fmt.Errorf("worker pool requires an ingester")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		ctx:    ctx,
		logger: logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "source", job.Source)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped", "source", job.Source)
		return false
	}
}

// Submit blocks until the job is queued or ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued", "source", job.Source)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("ingest worker stopped", "worker_id", id)
}

func (p *Pool) processJob(job Job) {
	var (
		res *ingest.Result
		err error
	)
	if job.DocumentID != "" {
		res, err = p.config.Ingester.UpdateText(p.ctx, job.DocumentID, job.Request.Text)
	} else {
		res, err = p.config.Ingester.Ingest(p.ctx, job.Request)
	}

	if err != nil {
		p.logger.Error("ingest failed",
			"source", job.Source,
			"error", err,
		)
	} else {
		p.logger.Info("page stored",
			"source", job.Source,
			"document_id", res.Document.ID,
			"chunks", res.ChunkCount,
		)
	}

	if p.config.OnDone != nil {
		p.config.OnDone(Outcome{Job: job, Result: res, Err: err})
	}
}
