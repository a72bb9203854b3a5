package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
	"github.com/iapp-technology/chinda-eval/internal/metrics"
)

// Status is the final state of one benchmark run.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusNotRun  Status = "NOT_RUN"
)

// Job is one evaluation subprocess invocation: a single benchmark against a
// ready model endpoint, writing into a work directory owned by this
// (model, benchmark) pair alone.
type Job struct {
	Model       string
	APIURL      string
	Benchmark   catalog.Benchmark
	WorkDir     string
	LogPath     string
	SampleLimit int
}

// Result records the outcome of one job. It is written once, on subprocess
// completion, and never mutated afterward.
type Result struct {
	Benchmark string
	Status    Status
	Duration  time.Duration
	WorkDir   string
	LogPath   string
	Err       error
}

// Launcher runs one evaluation subprocess to completion. Implementations
// must honor ctx cancellation and return a non-nil error iff the run failed.
type Launcher interface {
	Run(ctx context.Context, job Job) error
}

// Scheduler launches jobs in input order under a concurrency bound. Only the
// bound is guaranteed; completion order is whatever the subprocesses do.
type Scheduler struct {
	launcher Launcher
	limit    int
	poll     time.Duration
	log      zerolog.Logger
}

// New returns a Scheduler with concurrency limit n (values below 1 are
// raised to 1) and a 1s slot poll.
func New(launcher Launcher, n int, log zerolog.Logger) *Scheduler {
	if n < 1 {
		n = 1
	}
	return &Scheduler{launcher: launcher, limit: n, poll: time.Second, log: log}
}

// SetPollInterval overrides the slot poll interval. Tests use a short one.
func (s *Scheduler) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.poll = d
	}
}

// Run executes every job and returns one Result per job, in input order.
// A failing job never cancels its siblings; the returned error is non-nil
// iff at least one job failed or the context was canceled before all jobs
// could launch.
func (s *Scheduler) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	if err := checkDistinct(jobs); err != nil {
		return nil, err
	}

	results := make([]Result, len(jobs))
	var wg sync.WaitGroup
	var inflight atomic.Int32

	launched := 0
launch:
	for i, job := range jobs {
		// Busy-poll until a slot frees up.
		for inflight.Load() >= int32(s.limit) {
			select {
			case <-ctx.Done():
				break launch
			case <-time.After(s.poll):
			}
		}
		if ctx.Err() != nil {
			break launch
		}

		inflight.Add(1)
		metrics.InflightEvaluations.Inc()
		wg.Add(1)
		launched++
		s.log.Info().Str("model", job.Model).Str("benchmark", job.Benchmark.ID).
			Int("limit", job.SampleLimit).Msg("launching benchmark")

		go func(i int, job Job) {
			defer wg.Done()
			defer inflight.Add(-1)
			defer metrics.InflightEvaluations.Dec()

			start := time.Now()
			err := s.launcher.Run(ctx, job)
			dur := time.Since(start)

			res := Result{
				Benchmark: job.Benchmark.ID,
				Duration:  dur,
				WorkDir:   job.WorkDir,
				LogPath:   job.LogPath,
			}
			if err != nil {
				res.Status = StatusFailed
				res.Err = err
				s.log.Error().Err(err).Str("benchmark", job.Benchmark.ID).
					Dur("took", dur).Str("log", job.LogPath).Msg("benchmark failed")
			} else {
				res.Status = StatusSuccess
				s.log.Info().Str("benchmark", job.Benchmark.ID).
					Dur("took", dur).Msg("benchmark finished")
			}
			metrics.EvaluationsTotal.WithLabelValues(job.Benchmark.ID, string(res.Status)).Inc()
			metrics.EvaluationDuration.WithLabelValues(job.Benchmark.ID).Observe(dur.Seconds())
			results[i] = res
		}(i, job)
	}

	wg.Wait()

	var merr *multierror.Error
	var ok, failed int
	for i := range results {
		switch results[i].Status {
		case StatusSuccess:
			ok++
		case StatusFailed:
			failed++
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", results[i].Benchmark, results[i].Err))
		default:
			results[i] = Result{Benchmark: jobs[i].Benchmark.ID, Status: StatusNotRun,
				WorkDir: jobs[i].WorkDir, LogPath: jobs[i].LogPath}
		}
	}
	s.log.Info().Int("succeeded", ok).Int("failed", failed).
		Int("not_run", len(jobs)-launched).Msg("benchmark batch complete")

	if ctx.Err() != nil && launched < len(jobs) {
		merr = multierror.Append(merr, fmt.Errorf("batch interrupted: %w", ctx.Err()))
	}
	return results, merr.ErrorOrNil()
}

func checkDistinct(jobs []Job) error {
	seen := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		if _, dup := seen[j.Benchmark.ID]; dup {
			return fmt.Errorf("duplicate benchmark in batch: %s", j.Benchmark.ID)
		}
		seen[j.Benchmark.ID] = struct{}{}
	}
	return nil
}
