package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
	"github.com/iapp-technology/chinda-eval/internal/common/fsutil"
	"github.com/iapp-technology/chinda-eval/internal/config"
	"github.com/iapp-technology/chinda-eval/internal/procutil"
	"github.com/iapp-technology/chinda-eval/internal/report"
	"github.com/iapp-technology/chinda-eval/internal/scheduler"
	"github.com/iapp-technology/chinda-eval/internal/serving"
	"github.com/iapp-technology/chinda-eval/internal/summary"
)

// Lifecycle is the serving-container surface the runner drives.
type Lifecycle interface {
	Start(ctx context.Context, t config.ModelTarget) error
	Stop(ctx context.Context, t config.ModelTarget) error
}

// Runner executes whole evaluation batches: per model, bring the server up,
// run every benchmark under the concurrency bound, extract scores, write the
// scorecard, tear the server down. A failed model start skips that model's
// batch only.
type Runner struct {
	cfg       config.Config
	lifecycle Lifecycle
	launcher  scheduler.Launcher
	procs     *procutil.Registry
	tracker   *Tracker
	log       zerolog.Logger

	// extract is swapped by tests to avoid fabricating report trees.
	extract func(workDir string, b catalog.Benchmark) report.Score
}

// New wires a production runner: docker-backed lifecycle and evalscope
// launcher sharing one owned-process registry.
func New(cfg config.Config, log zerolog.Logger) *Runner {
	procs := procutil.NewRegistry(5 * time.Second)
	return &Runner{
		cfg:       cfg,
		lifecycle: serving.NewManager(cfg, log),
		launcher:  scheduler.NewEvalscopeLauncher(cfg, procs),
		procs:     procs,
		tracker:   NewTracker(),
		log:       log,
		extract:   report.Extract,
	}
}

// SetLifecycle and SetLauncher replace production collaborators in tests.
func (r *Runner) SetLifecycle(l Lifecycle) { r.lifecycle = l }

func (r *Runner) SetLauncher(l scheduler.Launcher) { r.launcher = l }

// SetExtractor replaces score extraction in tests.
func (r *Runner) SetExtractor(f func(string, catalog.Benchmark) report.Score) {
	r.extract = f
}

// Tracker exposes batch progress for the status endpoint.
func (r *Runner) Tracker() *Tracker { return r.tracker }

// Shutdown signals every owned evaluation subprocess (terminate, grace,
// kill) and tears down the targets' containers.
func (r *Runner) Shutdown(ctx context.Context, targets []config.ModelTarget) {
	r.procs.TerminateAll()
	for _, t := range targets {
		_ = r.lifecycle.Stop(ctx, t)
	}
}

// Run evaluates every target against the benchmark list. Model batches run
// concurrently up to the model-parallelism bound, each with its own scheduler
// and port. The returned error is non-nil iff any benchmark failed or any
// model was skipped.
func (r *Runner) Run(ctx context.Context, targets []config.ModelTarget, benches []catalog.Benchmark) error {
	var g errgroup.Group
	g.SetLimit(r.cfg.ModelParallel)

	var mu sync.Mutex
	var merr *multierror.Error
	for _, t := range targets {
		t := t
		g.Go(func() error {
			if err := r.RunModel(ctx, t, benches); err != nil {
				mu.Lock()
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", t.Name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return merr.ErrorOrNil()
}

// RunModel executes one model's whole benchmark batch.
func (r *Runner) RunModel(ctx context.Context, t config.ModelTarget, benches []catalog.Benchmark) error {
	outDir := filepath.Join(r.cfg.OutputDir, t.Name)
	if err := fsutil.EnsureDir(filepath.Join(outDir, "logs")); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	r.tracker.SetPhase(t.Name, PhaseProvisioning)
	if err := r.lifecycle.Start(ctx, t); err != nil {
		// Provisioning failure skips this target's batch; siblings continue.
		r.tracker.SetPhase(t.Name, PhaseSkipped)
		r.log.Error().Err(err).Str("model", t.Name).Msg("server never became ready; skipping batch")
		return fmt.Errorf("provisioning: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		_ = r.lifecycle.Stop(stopCtx, t)
	}()

	jobs := r.buildJobs(t, outDir, benches)
	r.tracker.SetPhase(t.Name, PhaseEvaluating)
	sched := scheduler.New(r.launcher, r.cfg.MaxParallel, r.log.With().Str("model", t.Name).Logger())
	results, runErr := sched.Run(ctx, jobs)
	r.tracker.SetResults(t.Name, results)

	if err := writeStatusFile(filepath.Join(outDir, "status.txt"), results); err != nil {
		r.log.Warn().Err(err).Str("model", t.Name).Msg("could not persist status file")
	}

	r.tracker.SetPhase(t.Name, PhaseSummarizing)
	sum := summary.Build(t.Name, benches, func(b catalog.Benchmark) report.Score {
		return r.extract(filepath.Join(outDir, b.ID), b)
	})
	csvPath := filepath.Join(outDir, "score_summary.csv")
	if err := sum.WriteCSV(csvPath); err != nil {
		runErr = multierror.Append(runErr, fmt.Errorf("write summary: %w", err)).ErrorOrNil()
	} else {
		r.log.Info().Str("model", t.Name).Str("csv", csvPath).Msg("score summary written")
		fmt.Print(sum.Render())
	}

	r.tracker.SetPhase(t.Name, PhaseDone)
	return runErr
}

func (r *Runner) buildJobs(t config.ModelTarget, outDir string, benches []catalog.Benchmark) []scheduler.Job {
	jobs := make([]scheduler.Job, 0, len(benches))
	for _, b := range benches {
		jobs = append(jobs, scheduler.Job{
			Model:       t.ServedName,
			APIURL:      t.APIURL(),
			Benchmark:   b,
			WorkDir:     filepath.Join(outDir, b.ID),
			LogPath:     filepath.Join(outDir, "logs", b.ID+".log"),
			SampleLimit: r.cfg.SampleLimitFor(b),
		})
	}
	return jobs
}

// writeStatusFile persists one "benchmark STATUS duration" line per result.
func writeStatusFile(path string, results []scheduler.Result) error {
	var b strings.Builder
	for _, res := range results {
		fmt.Fprintf(&b, "%s %s %s\n", res.Benchmark, res.Status, res.Duration.Round(time.Millisecond))
	}
	return fsutil.WriteFileAtomic(path, []byte(b.String()), 0o644)
}
