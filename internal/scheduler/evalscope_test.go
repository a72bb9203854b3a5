package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
	"github.com/iapp-technology/chinda-eval/internal/config"
)

func TestEvalscopeArgs(t *testing.T) {
	l := &EvalscopeLauncher{
		Bin:            "evalscope",
		APIKey:         "EMPTY",
		Generation:     config.GenerationConfig{MaxNewTokens: 32768},
		RequestTimeout: 36000 * time.Second,
	}
	job := Job{
		Model:       "my-model",
		APIURL:      "http://127.0.0.1:8801/v1/chat/completions",
		Benchmark:   catalog.Benchmark{ID: "aime24-th"},
		WorkDir:     "/out/aime24-th",
		SampleLimit: 30,
	}
	got := strings.Join(l.args(job), " ")
	for _, want := range []string{
		"eval",
		"--model my-model",
		"--api-url http://127.0.0.1:8801/v1/chat/completions",
		"--api-key EMPTY",
		"--eval-type service",
		"--datasets aime24-th",
		"--work-dir /out/aime24-th",
		`"do_sample":false`,
		`"max_new_tokens":32768`,
		"--timeout 36000",
		"--limit 30",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in args: %s", want, got)
		}
	}

	job.SampleLimit = 0
	if strings.Contains(strings.Join(l.args(job), " "), "--limit") {
		t.Fatal("zero sample limit must omit --limit")
	}
}

func TestEvalscopeRunFailure(t *testing.T) {
	d := t.TempDir()
	l := &EvalscopeLauncher{Bin: "/bin/false", RequestTimeout: time.Second}
	job := Job{
		Benchmark: catalog.Benchmark{ID: "aime24"},
		WorkDir:   filepath.Join(d, "aime24"),
		LogPath:   filepath.Join(d, "aime24.log"),
	}
	err := l.Run(context.Background(), job)
	if err == nil {
		t.Fatal("expected failure from /bin/false")
	}
	if !strings.Contains(err.Error(), "aime24") {
		t.Fatalf("error lacks benchmark id: %v", err)
	}
	// Work dir and log file must exist even for a failed run.
	if _, serr := os.Stat(job.WorkDir); serr != nil {
		t.Fatal(serr)
	}
	if _, serr := os.Stat(job.LogPath); serr != nil {
		t.Fatal(serr)
	}
}

func TestTailFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x.log")
	if err := os.WriteFile(p, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := tailFile(p, 4); got != "6789" {
		t.Fatalf("tail: %q", got)
	}
	if got := tailFile(p, 100); got != "0123456789" {
		t.Fatalf("full read: %q", got)
	}
	if got := tailFile(filepath.Join(t.TempDir(), "missing"), 4); got != "" {
		t.Fatalf("missing file tail: %q", got)
	}
}
