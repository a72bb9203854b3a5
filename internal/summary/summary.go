package summary

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
	"github.com/iapp-technology/chinda-eval/internal/common/fsutil"
	"github.com/iapp-technology/chinda-eval/internal/report"
)

// averageLabel is the derived trailing row of every scorecard.
const averageLabel = "AVERAGE"

// Row is one benchmark line of a scorecard.
type Row struct {
	Label string
	Score report.Score
}

// Summary is a per-model scorecard: ordered benchmark rows plus a derived
// average over the present scores.
type Summary struct {
	Model string
	Rows  []Row
}

// Build extracts a score for every catalog entry in order.
func Build(model string, benches []catalog.Benchmark, extract func(catalog.Benchmark) report.Score) Summary {
	s := Summary{Model: model, Rows: make([]Row, 0, len(benches))}
	for _, b := range benches {
		s.Rows = append(s.Rows, Row{Label: b.Label, Score: extract(b)})
	}
	return s
}

// Average returns the arithmetic mean over present scores. Missing rows are
// excluded, not counted as zero; all-missing input yields a missing average.
func (s Summary) Average() report.Score {
	var sum float64
	var n int
	for _, r := range s.Rows {
		if r.Score.Valid {
			sum += r.Score.Value
			n++
		}
	}
	if n == 0 {
		return report.Missing()
	}
	return report.Of(sum / float64(n))
}

// Set replaces the score of a single labeled row, reporting whether the label
// exists. The average is derived, so no recomputation is stored.
func (s *Summary) Set(label string, sc report.Score) bool {
	for i := range s.Rows {
		if s.Rows[i].Label == label {
			s.Rows[i].Score = sc
			return true
		}
	}
	return false
}

// Scores returns the label to score mapping of the scorecard rows.
func (s Summary) Scores() map[string]report.Score {
	out := make(map[string]report.Score, len(s.Rows))
	for _, r := range s.Rows {
		out[r.Label] = r.Score
	}
	return out
}

// WriteCSV persists the scorecard atomically: the file is staged next to the
// destination and renamed into place, so readers never see a partial summary.
func (s Summary) WriteCSV(path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{{"Benchmarks", s.Model}}
	for _, r := range s.Rows {
		records = append(records, []string{r.Label, r.Score.String()})
	}
	records = append(records, []string{averageLabel, s.Average().String()})
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// ParseCSV reads a scorecard written by WriteCSV. The AVERAGE row is dropped
// on read since it is derived from the others.
func ParseCSV(path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Summary{}, err
	}
	if len(records) == 0 || len(records[0]) != 2 || records[0][0] != "Benchmarks" {
		return Summary{}, fmt.Errorf("%s: not a score summary", path)
	}
	s := Summary{Model: records[0][1]}
	for _, rec := range records[1:] {
		if len(rec) != 2 {
			return Summary{}, fmt.Errorf("%s: malformed row %q", path, rec)
		}
		if rec[0] == averageLabel {
			continue
		}
		sc, err := report.ParseScore(rec[1])
		if err != nil {
			return Summary{}, fmt.Errorf("%s: row %q: %w", path, rec[0], err)
		}
		s.Rows = append(s.Rows, Row{Label: rec[0], Score: sc})
	}
	return s, nil
}

// Render formats the scorecard as an aligned console table.
func (s Summary) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score Summary for %s:\n", s.Model)
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, r := range s.Rows {
		fmt.Fprintf(&b, "%-35s %10s\n", r.Label, r.Score.String())
	}
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "%-35s %10s\n", averageLabel, s.Average().String())
	return b.String()
}
