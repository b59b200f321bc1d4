// Package worker runs periodic maintenance jobs: pruning the order
// idempotency ledger and evicting expired in-memory carts and cache entries.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is a named maintenance task run every Interval. Run reports how many
// records it removed.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) (int64, error)
}

// Config holds worker configuration
type Config struct {
	// WorkerID identifies this instance in logs
	WorkerID string

	// PollInterval is how often due jobs are checked
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs running at once
	MaxConcurrency int
}

// Worker schedules maintenance jobs
type Worker struct {
	config Config
	jobs   []Job
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	nextRun map[string]time.Time
	running map[string]bool
}

// NewWorker creates a worker for jobs. Jobs with a non-positive interval or a
// nil Run are rejected.
func NewWorker(config Config, logger *slog.Logger, jobs ...Job) (*Worker, error) {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 10 * time.Second
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]bool, len(jobs))
	for i, job := range jobs {
		if job.Name == "" || job.Run == nil || job.Interval <= 0 {
			return nil, fmt.Errorf("worker: job %d is missing a name, run func or interval", i)
		}
		if seen[job.Name] {
			return nil, fmt.Errorf("worker: duplicate job %q", job.Name)
		}
		seen[job.Name] = true
		if job.Timeout <= 0 {
			jobs[i].Timeout = time.Minute
		}
	}

	return &Worker{
		config:  config,
		jobs:    jobs,
		logger:  logger.With("worker_id", config.WorkerID),
		now:     time.Now,
		nextRun: make(map[string]time.Time),
		running: make(map[string]bool),
	}, nil
}

// Start runs jobs until ctx is cancelled, then waits for running jobs to return.
// Every job runs once shortly after start.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"jobs", len(w.jobs),
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.config.MaxConcurrency)
	var wg sync.WaitGroup

	for {
		w.dispatch(ctx, sem, &wg)

		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// dispatch starts every due job that is not already running, as long as a
// concurrency slot is free.
func (w *Worker) dispatch(ctx context.Context, sem chan struct{}, wg *sync.WaitGroup) {
	jobs := w.due()
	for i, job := range jobs {
		select {
		case sem <- struct{}{}:
		default:
			w.postpone(jobs[i:])
			return
		}

		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			defer func() { <-sem }()
			defer w.release(job.Name)
			w.RunJob(ctx, job)
		}(job)
	}
}

// due marks due jobs as running and schedules their next run.
func (w *Worker) due() []Job {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	var due []Job
	for _, job := range w.jobs {
		if w.running[job.Name] {
			continue
		}
		if next, ok := w.nextRun[job.Name]; ok && now.Before(next) {
			continue
		}
		w.running[job.Name] = true
		w.nextRun[job.Name] = now.Add(job.Interval)
		due = append(due, job)
	}
	return due
}

// postpone makes jobs due again on the next poll.
func (w *Worker) postpone(jobs []Job) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, job := range jobs {
		delete(w.running, job.Name)
		delete(w.nextRun, job.Name)
	}
}

func (w *Worker) release(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.running, name)
}

// RunJob runs one job with its timeout and logs the outcome.
func (w *Worker) RunJob(ctx context.Context, job Job) {
	jobCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	start := w.now()
	removed, err := job.Run(jobCtx)
	if err != nil {
		w.logger.Error("job failed", "job", job.Name, "error", err)
		return
	}

	w.logger.Info("job completed",
		"job", job.Name,
		"removed", removed,
		"duration", w.now().Sub(start),
	)
}
