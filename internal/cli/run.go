package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iapp-technology/chinda-eval/internal/catalog"
	"github.com/iapp-technology/chinda-eval/internal/config"
	"github.com/iapp-technology/chinda-eval/internal/httpapi"
	"github.com/iapp-technology/chinda-eval/internal/runner"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		models        []string
		benches       []string
		limit         int
		parallel      int
		modelParallel int
		outputDir     string
		statusAddr    string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark suite against configured model targets",
		Example: `  # Evaluate every configured model on the full suite
  chinda-eval run --config eval.yaml

  # One model, two benchmarks, two at a time
  chinda-eval run --config eval.yaml --models chinda-8b --benchmarks aime24-th,math_500-th --parallel 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if limit > 0 {
				cfg.Limit = limit
			}
			if parallel > 0 {
				cfg.MaxParallel = parallel
			}
			if modelParallel > 0 {
				cfg.ModelParallel = modelParallel
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if statusAddr != "" {
				cfg.StatusAddr = statusAddr
			}

			targets, err := selectTargets(cfg, models)
			if err != nil {
				return err
			}
			suite := catalog.All()
			if len(benches) > 0 {
				suite = catalog.Select(benches)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			r := runner.New(cfg, opts.log)
			if cfg.StatusAddr != "" {
				go func() {
					if err := httpapi.Serve(ctx, cfg.StatusAddr, httpapi.NewMux(r.Tracker(), opts.log), opts.log); err != nil {
						opts.log.Warn().Err(err).Msg("status server stopped")
					}
				}()
			}

			err = r.Run(ctx, targets, suite)
			if ctx.Err() != nil {
				// Operator interrupt: signal owned subprocesses, then tear
				// down every target's container.
				r.Shutdown(context.Background(), targets)
			}
			return err
		},
	}
	cmd.Flags().StringSliceVar(&models, "models", nil, "model names to evaluate (default: all configured)")
	cmd.Flags().StringSliceVar(&benches, "benchmarks", nil, "benchmark ids to run (default: full catalog)")
	cmd.Flags().IntVar(&limit, "limit", 0, "global sample cap per benchmark")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "max concurrent benchmark subprocesses per model")
	cmd.Flags().IntVar(&modelParallel, "model-parallel", 0, "max concurrent model batches")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "work/output directory root")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "serve /healthz,/status,/metrics on this address")
	return cmd
}

func selectTargets(cfg config.Config, names []string) ([]config.ModelTarget, error) {
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("no model targets configured; add a models section to the config file")
	}
	if len(names) == 0 {
		return cfg.Models, nil
	}
	out := make([]config.ModelTarget, 0, len(names))
	for _, n := range names {
		t, ok := cfg.Target(n)
		if !ok {
			return nil, fmt.Errorf("unknown model target: %s", n)
		}
		out = append(out, t)
	}
	return out, nil
}
