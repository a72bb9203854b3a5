package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
)

func writeReport(t *testing.T, workDir, name, content string) string {
	t.Helper()
	dir := filepath.Join(workDir, "20250101_120000", "reports", "test-model")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtractTopLevelFallback(t *testing.T) {
	d := t.TempDir()
	p := writeReport(t, d, "aime24.json", `{"score": 0.75, "metrics": [{"name": "weird_metric", "score": 0.1}]}`)
	sc := ExtractFile(p, catalog.FamilyDefault)
	if !sc.Valid || sc.Value != 0.75 {
		t.Fatalf("expected fallback 0.75, got %+v", sc)
	}
}

func TestExtractMeanAccuracy(t *testing.T) {
	d := t.TempDir()
	p := writeReport(t, d, "math.json", `{"score": 0.9, "metrics": [{"name": "mean_acc", "score": 0.42}]}`)
	sc := ExtractFile(p, catalog.FamilyDefault)
	if !sc.Valid || sc.Value != 0.42 {
		t.Fatalf("expected matched metric 0.42, got %+v", sc)
	}
}

func TestExtractLanguageAccuracy(t *testing.T) {
	d := t.TempDir()
	p := writeReport(t, d, "cs.json",
		`{"metrics": [{"name": "accuracy", "score": 0.2}, {"name": "language_accuracy", "score": 0.81}]}`)
	sc := ExtractFile(p, catalog.FamilyLanguageMixing)
	if !sc.Valid || sc.Value != 0.81 {
		t.Fatalf("expected language_accuracy 0.81, got %+v", sc)
	}
}

func TestExtractCodeExecution(t *testing.T) {
	d := t.TempDir()
	p := writeReport(t, d, "lcb.json", `{"metrics": [{"name": "pass@1", "score": 0.33}]}`)
	sc := ExtractFile(p, catalog.FamilyCodeExecution)
	if !sc.Valid || sc.Value != 0.33 {
		t.Fatalf("expected pass@1 0.33, got %+v", sc)
	}
}

func TestExtractZeroInflationWorkaround(t *testing.T) {
	d := t.TempDir()
	p := writeReport(t, d, "ifeval.json", `{
		"metrics": [{
			"name": "prompt_level_strict", "score": 0.5
		}, {
			"name": "inst_level_loose_acc", "score": 0,
			"categories": [{"subsets": [{"score": 0}, {"score": 0.63}]}]
		}]
	}`)
	sc := ExtractFile(p, catalog.FamilyInstructionFollowing)
	if !sc.Valid || sc.Value != 0.63 {
		t.Fatalf("expected nested subset 0.63, got %+v", sc)
	}
}

func TestExtractZeroInflationPercentageScale(t *testing.T) {
	d := t.TempDir()
	p := writeReport(t, d, "ifeval-th.json", `{
		"metrics": [{
			"name": "inst_level_loose_acc", "score": 0,
			"categories": [{"subsets": [{"score": 60.0}]}]
		}]
	}`)
	sc := ExtractFile(p, catalog.FamilyInstructionFollowing)
	if !sc.Valid || sc.Value != 0.6 {
		t.Fatalf("expected normalized 0.6, got %+v", sc)
	}
}

func TestExtractInstructionNonZeroKept(t *testing.T) {
	d := t.TempDir()
	p := writeReport(t, d, "ifeval.json", `{
		"metrics": [{
			"name": "inst_level_loose_acc", "score": 0.7,
			"categories": [{"subsets": [{"score": 0.1}]}]
		}]
	}`)
	sc := ExtractFile(p, catalog.FamilyInstructionFollowing)
	if !sc.Valid || sc.Value != 0.7 {
		t.Fatalf("nonzero metric score must win over subsets, got %+v", sc)
	}
}

func TestExtractMissingCases(t *testing.T) {
	d := t.TempDir()

	// No report at all.
	if sc := Extract(d, catalog.Benchmark{ID: "x"}); sc.Valid {
		t.Fatalf("expected missing for empty work dir, got %+v", sc)
	}

	// Malformed JSON.
	p := writeReport(t, d, "bad.json", `{not json`)
	if sc := ExtractFile(p, catalog.FamilyDefault); sc.Valid {
		t.Fatalf("expected missing for malformed JSON, got %+v", sc)
	}

	// Matching metric without a score, and no top-level score.
	d2 := t.TempDir()
	p2 := writeReport(t, d2, "noscore.json", `{"metrics": [{"name": "accuracy"}]}`)
	if sc := ExtractFile(p2, catalog.FamilyDefault); sc.Valid {
		t.Fatalf("expected missing for scoreless metric, got %+v", sc)
	}
}

func TestFindLatestReport(t *testing.T) {
	d := t.TempDir()
	old := writeReport(t, d, "old.json", `{"score": 0.1}`)
	newer := writeReport(t, d, "new.json", `{"score": 0.2}`)
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	got, ok := FindLatestReport(d)
	if !ok || got != newer {
		t.Fatalf("expected %s, got %s (ok=%v)", newer, got, ok)
	}

	// JSON outside a reports/ path element is ignored.
	d2 := t.TempDir()
	if err := os.WriteFile(filepath.Join(d2, "stray.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := FindLatestReport(d2); ok {
		t.Fatal("stray JSON outside reports/ must not be picked up")
	}
}

func TestScoreStringAndParse(t *testing.T) {
	if got := Of(0.5).String(); got != "0.5000" {
		t.Fatalf("unexpected rendering: %s", got)
	}
	if got := Missing().String(); got != MissingToken {
		t.Fatalf("unexpected missing rendering: %s", got)
	}
	sc, err := ParseScore("0.5000")
	if err != nil || !sc.Valid || sc.Value != 0.5 {
		t.Fatalf("parse round trip failed: %+v %v", sc, err)
	}
	sc, err = ParseScore(MissingToken)
	if err != nil || sc.Valid {
		t.Fatalf("missing token must parse to missing: %+v %v", sc, err)
	}
	if _, err := ParseScore("abc"); err == nil {
		t.Fatal("expected parse error")
	}
}
