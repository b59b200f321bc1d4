package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewWorker_RejectsInvalidJobs(t *testing.T) {
	run := func(context.Context) (int64, error) { return 0, nil }

	tests := []struct {
		name string
		jobs []Job
	}{
		{"missing name", []Job{{Interval: time.Minute, Run: run}}},
		{"missing run", []Job{{Name: "prune", Interval: time.Minute}}},
		{"missing interval", []Job{{Name: "prune", Run: run}}},
		{"duplicate", []Job{
			{Name: "prune", Interval: time.Minute, Run: run},
			{Name: "prune", Interval: time.Hour, Run: run},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewWorker(Config{}, discardLogger(), tt.jobs...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWorker_Due(t *testing.T) {
	run := func(context.Context) (int64, error) { return 0, nil }
	w, err := NewWorker(Config{}, discardLogger(),
		Job{Name: "evict_carts", Interval: time.Minute, Run: run},
		Job{Name: "prune_order_requests", Interval: time.Hour, Run: run},
	)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if got := len(w.due()); got != 2 {
		t.Fatalf("first poll: %d due, want 2", got)
	}
	if got := len(w.due()); got != 0 {
		t.Errorf("running jobs must not be due again, got %d", got)
	}

	w.release("evict_carts")
	w.release("prune_order_requests")

	now = now.Add(2 * time.Minute)
	due := w.due()
	if len(due) != 1 || due[0].Name != "evict_carts" {
		t.Errorf("after 2 minutes only evict_carts is due, got %v", due)
	}

	w.postpone(due)
	if got := len(w.due()); got != 1 {
		t.Errorf("postponed job should be due on the next poll, got %d", got)
	}
}

func TestWorker_StartRunsJobsAndStops(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{}, 1)

	w, err := NewWorker(Config{PollInterval: 5 * time.Millisecond}, discardLogger(), Job{
		Name:     "evict_carts",
		Interval: time.Hour,
		Run: func(ctx context.Context) (int64, error) {
			runs.Add(1)
			select {
			case done <- struct{}{}:
			default:
			}
			return 3, nil
		},
	})
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run after start")
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	if got := runs.Load(); got != 1 {
		t.Errorf("job ran %d times within its interval, want 1", got)
	}
}

func TestWorker_RunJobAppliesTimeout(t *testing.T) {
	w, err := NewWorker(Config{}, discardLogger())
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}

	var sawDeadline bool
	w.RunJob(context.Background(), Job{
		Name:     "prune_order_requests",
		Interval: time.Hour,
		Timeout:  time.Second,
		Run: func(ctx context.Context) (int64, error) {
			_, sawDeadline = ctx.Deadline()
			return 0, errors.New("connection refused")
		},
	})

	if !sawDeadline {
		t.Error("job context should carry the job timeout")
	}
}
