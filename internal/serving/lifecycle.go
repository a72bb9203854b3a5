package serving

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iapp-technology/chinda-eval/internal/config"
	"github.com/iapp-technology/chinda-eval/internal/metrics"
	"github.com/iapp-technology/chinda-eval/internal/procutil"
)

// Manager brings a model target's inference server to readiness and releases
// it afterward. One container owns one port at a time; Start tears down
// whatever currently holds the target's name or port (last-writer-wins).
type Manager struct {
	serving      config.ServingConfig
	runner       CommandRunner
	client       *http.Client
	readyTimeout time.Duration
	pollInterval time.Duration
	log          zerolog.Logger
}

// NewManager wires a lifecycle manager from config.
func NewManager(cfg config.Config, log zerolog.Logger) *Manager {
	return &Manager{
		serving:      cfg.Serving,
		runner:       ExecRunner{},
		client:       &http.Client{Timeout: 2 * time.Second},
		readyTimeout: cfg.ReadyTimeout(),
		pollInterval: cfg.PollInterval(),
		log:          log,
	}
}

// SetRunner replaces the container CLI runner. Tests inject fakes here.
func (m *Manager) SetRunner(r CommandRunner) { m.runner = r }

// Stop is a best-effort, idempotent teardown of the target's container and
// anything else publishing its port. A target with nothing running is a
// no-op, not an error.
func (m *Manager) Stop(ctx context.Context, t config.ModelTarget) error {
	name := t.ContainerName()
	if out, err := m.runner.Run(ctx, "docker", "rm", "-f", name); err != nil {
		if !strings.Contains(string(out), "No such container") {
			m.log.Debug().Str("container", name).Str("out", strings.TrimSpace(string(out))).
				Msg("container remove reported an error; continuing")
		}
	} else {
		m.log.Info().Str("container", name).Msg("stopped serving container")
	}
	// Port exclusivity: clear any other container still publishing the port.
	out, err := m.runner.Run(ctx, "docker", "ps", "-q", "--filter", fmt.Sprintf("publish=%d", t.Port))
	if err != nil {
		return nil
	}
	for _, id := range strings.Fields(string(out)) {
		m.log.Warn().Str("container", id).Int("port", t.Port).Msg("removing stale container on target port")
		_, _ = m.runner.Run(ctx, "docker", "rm", "-f", id)
	}
	return nil
}

// Start launches the serving container and polls the models-listing endpoint
// until it reports the served model name or the wait budget elapses. On
// timeout or early container exit it returns a StartError carrying a log
// tail, after tearing the container down.
func (m *Manager) Start(ctx context.Context, t config.ModelTarget) error {
	if err := m.Stop(ctx, t); err != nil {
		return err
	}
	if procutil.IsPortBusy(t.Host, t.Port) {
		metrics.ServerStartsTotal.WithLabelValues("failed").Inc()
		return &StartError{Target: t.Name, Err: fmt.Errorf("port %d still in use after teardown", t.Port)}
	}

	args := m.runArgs(t)
	m.log.Info().Str("model", t.Name).Int("port", t.Port).Ints("gpus", t.GPUs).
		Msg("starting serving container")
	if out, err := m.runner.Run(ctx, "docker", args...); err != nil {
		metrics.ServerStartsTotal.WithLabelValues("failed").Inc()
		return &StartError{Target: t.Name, Logs: string(out), Err: err}
	}

	if err := m.waitReady(ctx, t); err != nil {
		metrics.ServerStartsTotal.WithLabelValues("failed").Inc()
		logs := m.logsTail(ctx, t.ContainerName())
		_ = m.Stop(ctx, t)
		return &StartError{Target: t.Name, Logs: logs, Err: err}
	}
	metrics.ServerStartsTotal.WithLabelValues("ready").Inc()
	m.log.Info().Str("model", t.Name).Str("url", t.BaseURL()).Msg("serving container ready")
	return nil
}

// waitReady polls GET /v1/models until the body names the served model,
// checking between polls that the container is still running.
func (m *Manager) waitReady(ctx context.Context, t config.ModelTarget) error {
	url := t.BaseURL() + "/v1/models"
	deadline := time.Now().Add(m.readyTimeout)
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("server not ready within %s", m.readyTimeout)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if running, known := m.containerRunning(ctx, t.ContainerName()); known && !running {
			return fmt.Errorf("container exited before becoming ready")
		}
		if m.modelsListed(ctx, url, t.ServedName) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}
}

func (m *Manager) modelsListed(ctx context.Context, url, served string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return strings.Contains(string(body), served)
}

func (m *Manager) containerRunning(ctx context.Context, name string) (running, known bool) {
	out, err := m.runner.Run(ctx, "docker", "inspect", "-f", "{{.State.Running}}", name)
	if err != nil {
		return false, false
	}
	return strings.TrimSpace(string(out)) == "true", true
}

func (m *Manager) logsTail(ctx context.Context, name string) string {
	out, _ := m.runner.Run(ctx, "docker", "logs", "--tail", "50", name)
	s := string(out)
	if len(s) > 4096 {
		s = s[len(s)-4096:]
	}
	return s
}

func (m *Manager) runArgs(t config.ModelTarget) []string {
	args := []string{
		"run", "-d",
		"--name", t.ContainerName(),
		"--restart", "no",
		"--ipc", "host",
		"-p", fmt.Sprintf("%d:8000", t.Port),
	}
	if len(t.GPUs) > 0 {
		devs := make([]string, len(t.GPUs))
		for i, g := range t.GPUs {
			devs[i] = strconv.Itoa(g)
		}
		args = append(args, "--gpus", "device="+strings.Join(devs, ","))
	}
	if m.serving.ModelsDir != "" {
		args = append(args, "-v", m.serving.ModelsDir+":/models")
	}
	args = append(args, m.serving.Image,
		"--model", path.Join("/models", t.Path),
		"--served-model-name", t.ServedName,
		"--tensor-parallel-size", strconv.Itoa(t.TensorParallel),
		"--max-model-len", strconv.Itoa(m.serving.MaxModelLen),
		"--gpu-memory-utilization", strconv.FormatFloat(m.serving.GPUMemoryUtilization, 'f', 2, 64),
		"--max-num-seqs", strconv.Itoa(m.serving.MaxNumSeqs),
		"--max-num-batched-tokens", strconv.Itoa(m.serving.MaxNumBatchedTokens),
	)
	if m.serving.EnableChunkedPrefill {
		args = append(args, "--enable-chunked-prefill")
	}
	return args
}
