package report

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
)

// reportDoc mirrors the parts of the evaluation tool's report JSON that score
// extraction reads. Everything is optional; this is a best-effort scrape of
// known keys, not a schema-validated parse.
type reportDoc struct {
	Score   *float64 `json:"score"`
	Metrics []metric `json:"metrics"`
}

type metric struct {
	Name       string     `json:"name"`
	Score      *float64   `json:"score"`
	Categories []category `json:"categories"`
}

type category struct {
	Subsets []subset `json:"subsets"`
}

type subset struct {
	Score float64 `json:"score"`
}

// FindLatestReport returns the most recently written JSON file under a
// "reports" path below workDir, or false when none exists.
func FindLatestReport(workDir string) (string, bool) {
	var best string
	var bestMod int64
	_ = filepath.WalkDir(workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		rel, err := filepath.Rel(workDir, path)
		if err != nil {
			return nil
		}
		if !underReports(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		mod := info.ModTime().UnixNano()
		if best == "" || mod > bestMod || (mod == bestMod && path > best) {
			best, bestMod = path, mod
		}
		return nil
	})
	return best, best != ""
}

func underReports(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "reports" {
			return true
		}
	}
	return false
}

// Extract locates the newest report for the benchmark's work directory and
// applies the family extraction rule. Any irregularity yields a missing score.
func Extract(workDir string, b catalog.Benchmark) Score {
	path, ok := FindLatestReport(workDir)
	if !ok {
		return Missing()
	}
	return ExtractFile(path, b.Family)
}

// ExtractFile applies the family extraction rule to a single report file.
func ExtractFile(path string, family catalog.Family) Score {
	data, err := os.ReadFile(path)
	if err != nil {
		return Missing()
	}
	var doc reportDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Missing()
	}
	st := strategyFor(family)
	for _, m := range doc.Metrics {
		if !st.match(m.Name) {
			continue
		}
		if st.nestedFallback && m.Score != nil && *m.Score == 0 {
			// Zero-inflation workaround: the upstream tool sometimes
			// reports 0 at the metric level while the real value sits in
			// a subset. Heuristic; a genuine zero is indistinguishable.
			if v, ok := firstNonzeroSubset(m); ok {
				return Of(st.normalize(v))
			}
		}
		if m.Score == nil {
			return Missing()
		}
		return Of(st.normalize(*m.Score))
	}
	if doc.Score != nil {
		return Of(*doc.Score)
	}
	return Missing()
}

func firstNonzeroSubset(m metric) (float64, bool) {
	for _, c := range m.Categories {
		for _, s := range c.Subsets {
			if s.Score != 0 {
				return s.Score, true
			}
		}
	}
	return 0, false
}
