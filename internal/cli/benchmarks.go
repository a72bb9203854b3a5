package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
)

func newBenchmarksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "benchmarks",
		Short: "List the benchmark catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, b := range catalog.All() {
				fmt.Printf("%-20s %s\n", b.ID, b.Label)
			}
			return nil
		},
	}
}
