package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
	"github.com/iapp-technology/chinda-eval/internal/report"
	"github.com/iapp-technology/chinda-eval/internal/summary"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "extract <model-output-dir>",
		Short: "Extract scores from evaluation outputs and write the CSV scorecard",
		Long: `Reads the newest report JSON per benchmark under the given output
directory, applies the per-family metric rules and writes score_summary.csv
next to the benchmark directories. The directory name is taken as the model
name. With --benchmark, only that entry of an existing summary is re-extracted
and the average recomputed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := filepath.Clean(args[0])
			info, err := os.Stat(outDir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("not a directory: %s", outDir)
			}
			model := filepath.Base(outDir)
			csvPath := filepath.Join(outDir, "score_summary.csv")

			if only != "" {
				return patchSummary(csvPath, outDir, only)
			}

			sum := summary.Build(model, catalog.All(), func(b catalog.Benchmark) report.Score {
				return report.Extract(filepath.Join(outDir, b.ID), b)
			})
			if err := sum.WriteCSV(csvPath); err != nil {
				return err
			}
			opts.log.Info().Str("csv", csvPath).Msg("score summary written")
			fmt.Print(sum.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "benchmark", "", "re-extract a single benchmark into the existing summary")
	return cmd
}

// patchSummary replaces one row of an existing scorecard and rewrites it,
// which also refreshes the derived average.
func patchSummary(csvPath, outDir, benchID string) error {
	b, ok := catalog.Lookup(benchID)
	if !ok {
		return fmt.Errorf("unknown benchmark: %s", benchID)
	}
	sum, err := summary.ParseCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read existing summary: %w", err)
	}
	sc := report.Extract(filepath.Join(outDir, b.ID), b)
	if !sum.Set(b.Label, sc) {
		return fmt.Errorf("summary has no row %q", b.Label)
	}
	if err := sum.WriteCSV(csvPath); err != nil {
		return err
	}
	fmt.Print(sum.Render())
	return nil
}
