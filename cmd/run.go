package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/pipeline"
)

// runOutput is the invocation summary printed to stdout; the full report
// lives in the artifact files it names.
type runOutput struct {
	RunID    string         `json:"run_id"`
	JSONPath string         `json:"report_json"`
	HTMLPath string         `json:"report_html"`
	Stats    model.RunStats `json:"run_stats"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, score, and synthesize one pricing report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Run errors keep their class so main can map the exit code.
		result, err := env.Pipeline.Run(ctx)
		if err != nil {
			return err
		}

		return writeRunResult(os.Stdout, result)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// writeRunResult prints the invocation summary as indented JSON.
func writeRunResult(w io.Writer, result *pipeline.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runOutput{
		RunID:    result.RunID,
		JSONPath: result.Artifacts.JSONPath,
		HTMLPath: result.Artifacts.HTMLPath,
		Stats:    result.Report.RunStats,
	})
}
