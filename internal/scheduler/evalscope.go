package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/iapp-technology/chinda-eval/internal/common/fsutil"
	"github.com/iapp-technology/chinda-eval/internal/config"
	"github.com/iapp-technology/chinda-eval/internal/procutil"
)

// EvalscopeLauncher runs the external `evalscope eval` command against an
// OpenAI-compatible endpoint. Stdout and stderr go to the job's log file for
// post-mortem; the subprocess handle is registered so cancellation tooling
// signals owned processes only.
type EvalscopeLauncher struct {
	Bin            string
	APIKey         string
	Generation     config.GenerationConfig
	RequestTimeout time.Duration
	Procs          *procutil.Registry
}

// NewEvalscopeLauncher wires a launcher from config.
func NewEvalscopeLauncher(cfg config.Config, procs *procutil.Registry) *EvalscopeLauncher {
	return &EvalscopeLauncher{
		Bin:            cfg.EvalscopeBin,
		APIKey:         cfg.APIKey,
		Generation:     cfg.Generation,
		RequestTimeout: cfg.RequestTimeout(),
		Procs:          procs,
	}
}

// Run implements Launcher.
func (l *EvalscopeLauncher) Run(ctx context.Context, job Job) error {
	if err := fsutil.EnsureDir(job.WorkDir); err != nil {
		return fmt.Errorf("work dir: %w", err)
	}
	logf, err := os.Create(job.LogPath)
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	defer logf.Close()

	cmd := exec.CommandContext(ctx, l.Bin, l.args(job)...)
	cmd.Stdout = logf
	cmd.Stderr = logf
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", l.Bin, err)
	}
	if l.Procs != nil {
		l.Procs.Add(cmd)
		defer l.Procs.Remove(cmd)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s %s: %w; log tail: %s", l.Bin, job.Benchmark.ID, err, tailFile(job.LogPath, 2048))
	}
	return nil
}

func (l *EvalscopeLauncher) args(job Job) []string {
	gen, _ := json.Marshal(map[string]any{
		"do_sample":      l.Generation.DoSample,
		"temperature":    l.Generation.Temperature,
		"max_new_tokens": l.Generation.MaxNewTokens,
	})
	args := []string{
		"eval",
		"--model", job.Model,
		"--api-url", job.APIURL,
		"--api-key", l.APIKey,
		"--eval-type", "service",
		"--datasets", job.Benchmark.ID,
		"--work-dir", job.WorkDir,
		"--generation-config", string(gen),
		"--timeout", strconv.Itoa(int(l.RequestTimeout.Seconds())),
	}
	if job.SampleLimit > 0 {
		args = append(args, "--limit", strconv.Itoa(job.SampleLimit))
	}
	return args
}

// tailFile returns up to n trailing bytes of a log for error context.
func tailFile(path string, n int) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
