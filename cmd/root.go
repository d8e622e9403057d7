package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/pipeline"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pricewatch",
	Short: "Pricing intelligence pipeline for the IT channel",
	Long:  "Fetches vendor pricing chatter from forum listings and web search, scores and ranks it, synthesizes role-tagged insights via Claude, and writes JSON + HTML report artifacts.",
	// Runtime failures report as an exit code and a one-line error, not a
	// usage dump.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return pipeline.ConfigError(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return pipeline.ConfigError(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(pipeline.ExitCode(err))
	}
}
