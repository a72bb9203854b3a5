package cli

import (
	"testing"

	"github.com/iapp-technology/chinda-eval/internal/config"
)

func TestSelectTargets(t *testing.T) {
	cfg := config.Config{Models: []config.ModelTarget{{Name: "a"}, {Name: "b"}}}

	got, err := selectTargets(cfg, nil)
	if err != nil || len(got) != 2 {
		t.Fatalf("all targets: %v %v", got, err)
	}

	got, err = selectTargets(cfg, []string{"b"})
	if err != nil || len(got) != 1 || got[0].Name != "b" {
		t.Fatalf("named target: %v %v", got, err)
	}

	if _, err = selectTargets(cfg, []string{"missing"}); err == nil {
		t.Fatal("unknown name must be rejected")
	}

	if _, err = selectTargets(config.Config{}, nil); err == nil {
		t.Fatal("empty model list must be rejected")
	}
}
