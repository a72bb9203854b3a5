package cli

import (
	"github.com/spf13/cobra"

	"github.com/iapp-technology/chinda-eval/internal/serving"
)

func newStopCmd(opts *rootOptions) *cobra.Command {
	var models []string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Tear down serving containers for configured model targets",
		Long: `Stops the serving container of every selected target and clears any
stale container still publishing its port. Targets with nothing running are
skipped silently; stop is idempotent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			targets, err := selectTargets(cfg, models)
			if err != nil {
				return err
			}
			mgr := serving.NewManager(cfg, opts.log)
			for _, t := range targets {
				if err := mgr.Stop(cmd.Context(), t); err != nil {
					opts.log.Warn().Err(err).Str("model", t.Name).Msg("stop reported an error")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&models, "models", nil, "model names to stop (default: all configured)")
	return cmd
}
