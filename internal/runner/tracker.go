package runner

import (
	"sync"
	"time"

	"github.com/iapp-technology/chinda-eval/internal/scheduler"
)

// Phases a model batch moves through.
const (
	PhaseProvisioning = "provisioning"
	PhaseEvaluating   = "evaluating"
	PhaseSummarizing  = "summarizing"
	PhaseDone         = "done"
	PhaseSkipped      = "skipped"
)

// BenchmarkStatus is one benchmark's state in a status snapshot.
type BenchmarkStatus struct {
	Benchmark   string  `json:"benchmark"`
	Status      string  `json:"status"`
	DurationSec float64 `json:"duration_sec,omitempty"`
}

// ModelStatus is one model batch's state in a status snapshot.
type ModelStatus struct {
	Model      string            `json:"model"`
	Phase      string            `json:"phase"`
	Benchmarks []BenchmarkStatus `json:"benchmarks,omitempty"`
}

// Snapshot is the read-only projection served by the status endpoint.
type Snapshot struct {
	StartedUnix   int64         `json:"started_unix"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Models        []ModelStatus `json:"models"`
}

// Tracker records batch progress for the status endpoint. All methods are
// safe for concurrent use by per-model goroutines.
type Tracker struct {
	mu      sync.Mutex
	started time.Time
	order   []string
	models  map[string]*ModelStatus
}

func NewTracker() *Tracker {
	return &Tracker{started: time.Now(), models: make(map[string]*ModelStatus)}
}

// SetPhase records the phase of a model batch, creating the entry on first use.
func (t *Tracker) SetPhase(model, phase string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ms, ok := t.models[model]
	if !ok {
		ms = &ModelStatus{Model: model}
		t.models[model] = ms
		t.order = append(t.order, model)
	}
	ms.Phase = phase
}

// SetResults records final benchmark outcomes for a model batch.
func (t *Tracker) SetResults(model string, results []scheduler.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ms, ok := t.models[model]
	if !ok {
		return
	}
	ms.Benchmarks = ms.Benchmarks[:0]
	for _, r := range results {
		ms.Benchmarks = append(ms.Benchmarks, BenchmarkStatus{
			Benchmark:   r.Benchmark,
			Status:      string(r.Status),
			DurationSec: r.Duration.Seconds(),
		})
	}
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := Snapshot{
		StartedUnix:   t.started.Unix(),
		UptimeSeconds: int64(time.Since(t.started).Seconds()),
	}
	for _, name := range t.order {
		ms := t.models[name]
		cp := ModelStatus{Model: ms.Model, Phase: ms.Phase}
		cp.Benchmarks = append(cp.Benchmarks, ms.Benchmarks...)
		snap.Models = append(snap.Models, cp)
	}
	return snap
}
