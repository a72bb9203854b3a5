package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iapp-technology/chinda-eval/internal/config"
)

// rootOptions carries state shared across subcommands.
type rootOptions struct {
	cfgPath  string
	logLevel string
	log      zerolog.Logger
}

// Execute builds the command tree and runs it.
func Execute() error {
	return buildRootCmd().Execute()
}

func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "chinda-eval",
		Short:         "Orchestrate LLM benchmark evaluation against vLLM serving containers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "config file (yaml/json/toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		opts.log = newLogger(opts.logLevel)
	}

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newExtractCmd(opts))
	root.AddCommand(newBenchmarksCmd())
	root.AddCommand(newStopCmd(opts))
	return root
}

// loadConfig reads the configured file, or returns defaults when none given.
func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", o.cfgPath, err)
	}
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
