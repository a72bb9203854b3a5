package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
)

// fakeLauncher counts concurrent runs and records launch order.
type fakeLauncher struct {
	mu      sync.Mutex
	order   []string
	current atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
	fail    map[string]bool
}

func (f *fakeLauncher) Run(ctx context.Context, job Job) error {
	cur := f.current.Add(1)
	defer f.current.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	f.mu.Lock()
	f.order = append(f.order, job.Benchmark.ID)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.fail[job.Benchmark.ID] {
		return errors.New("boom")
	}
	return nil
}

func testJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		id := fmt.Sprintf("bench-%02d", i)
		jobs[i] = Job{Model: "m", Benchmark: catalog.Benchmark{ID: id, Label: id}}
	}
	return jobs
}

func newTestScheduler(l Launcher, limit int) *Scheduler {
	s := New(l, limit, zerolog.Nop())
	s.SetPollInterval(5 * time.Millisecond)
	return s
}

func TestBoundedConcurrency(t *testing.T) {
	for _, tc := range []struct{ n, m int }{{1, 5}, {2, 8}, {3, 3}, {4, 13}} {
		fl := &fakeLauncher{delay: 20 * time.Millisecond}
		s := newTestScheduler(fl, tc.n)
		results, err := s.Run(context.Background(), testJobs(tc.m))
		if err != nil {
			t.Fatalf("n=%d m=%d: %v", tc.n, tc.m, err)
		}
		if len(results) != tc.m {
			t.Fatalf("n=%d m=%d: %d results", tc.n, tc.m, len(results))
		}
		for _, r := range results {
			if r.Status != StatusSuccess {
				t.Fatalf("n=%d m=%d: %s status %s", tc.n, tc.m, r.Benchmark, r.Status)
			}
		}
		if peak := int(fl.peak.Load()); peak > tc.n {
			t.Fatalf("n=%d m=%d: observed %d in flight", tc.n, tc.m, peak)
		}
	}
}

func TestLaunchOrderFollowsInput(t *testing.T) {
	fl := &fakeLauncher{}
	s := newTestScheduler(fl, 1)
	jobs := testJobs(6)
	if _, err := s.Run(context.Background(), jobs); err != nil {
		t.Fatal(err)
	}
	for i, j := range jobs {
		if fl.order[i] != j.Benchmark.ID {
			t.Fatalf("position %d: launched %s, want %s", i, fl.order[i], j.Benchmark.ID)
		}
	}
}

func TestFailureDoesNotCancelSiblings(t *testing.T) {
	fl := &fakeLauncher{fail: map[string]bool{"bench-00": true}}
	s := newTestScheduler(fl, 1)
	results, err := s.Run(context.Background(), testJobs(3))
	if err == nil {
		t.Fatal("batch error must be non-nil when a benchmark fails")
	}
	if results[0].Status != StatusFailed || results[0].Err == nil {
		t.Fatalf("first result: %+v", results[0])
	}
	for _, r := range results[1:] {
		if r.Status != StatusSuccess {
			t.Fatalf("sibling %s: %s", r.Benchmark, r.Status)
		}
	}
}

func TestDuplicateBenchmarkRejected(t *testing.T) {
	jobs := testJobs(2)
	jobs[1].Benchmark.ID = jobs[0].Benchmark.ID
	s := newTestScheduler(&fakeLauncher{}, 2)
	if _, err := s.Run(context.Background(), jobs); err == nil {
		t.Fatal("expected duplicate rejection")
	}
}

func TestCancelMarksRemainingNotRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fl := &fakeLauncher{delay: 50 * time.Millisecond}
	s := newTestScheduler(fl, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	results, err := s.Run(ctx, testJobs(5))
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	var notRun int
	for _, r := range results {
		if r.Status == StatusNotRun {
			notRun++
		}
	}
	if notRun == 0 {
		t.Fatalf("expected unlaunched jobs to be NOT_RUN: %+v", results)
	}
}
