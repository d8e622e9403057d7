package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/pipeline"
	"github.com/sells-group/pricewatch-cli/internal/scorer"
)

var (
	scoreText  string
	scoreFile  string
	scoreTitle string
	scoreJSON  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score ad-hoc text against the live patterns and dictionary",
	Long: `Runs the scoring engine over arbitrary text and prints the full
decomposition: matched terms per category, detected vendors, multipliers and
boosts, the revenue-impact axes, and the capped total.

Examples:
  # Score a sentence
  pricewatch score --text "Broadcom tripled our VMware renewal quote"

  # Score a saved post, as JSON
  pricewatch score --file post.txt --json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		body, err := scoreInput(scoreText, scoreFile)
		if err != nil {
			return err
		}

		dict, matcher, err := loadDictionary()
		if err != nil {
			return err
		}
		set, err := loadPatternSet()
		if err != nil {
			return err
		}
		if err := scorer.ValidateConfig(cfg.Scoring); err != nil {
			return pipeline.ConfigError(err, "validate scoring config")
		}

		sc := scorer.New(cfg.Scoring, set, dict, matcher)
		score := sc.Score(model.RawItem{
			Title:    scoreTitle,
			Body:     body,
			PostedAt: time.Now().UTC(),
		})

		if scoreJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(score)
		}
		writeScore(os.Stdout, score)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreText, "text", "", "text to score")
	scoreCmd.Flags().StringVar(&scoreFile, "file", "", "file whose contents to score")
	scoreCmd.Flags().StringVar(&scoreTitle, "title", "", "optional title scored alongside the text")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the score as JSON")
	rootCmd.AddCommand(scoreCmd)
}

// scoreInput resolves the text to score from --text or --file.
func scoreInput(text, file string) (string, error) {
	switch {
	case text != "" && file != "":
		return "", eris.New("score: --text and --file are mutually exclusive")
	case text != "":
		return text, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", eris.Wrapf(err, "score: read %s", file)
		}
		return string(data), nil
	default:
		return "", eris.New("score: --text or --file is required")
	}
}

// writeScore prints the human-readable score decomposition. Map keys are
// sorted so repeated invocations print identically.
func writeScore(w io.Writer, s model.Score) {
	fmt.Fprintf(w, "Total:   %.2f\n", s.Total)
	fmt.Fprintf(w, "Urgency: %s\n", s.Urgency)
	if len(s.VendorsDetected) > 0 {
		fmt.Fprintf(w, "Vendors: %s\n", strings.Join(s.VendorsDetected, ", "))
	}

	if len(s.MatchedTerms) > 0 {
		fmt.Fprintln(w, "\nMatched terms:")
		cats := make([]string, 0, len(s.MatchedTerms))
		for c := range s.MatchedTerms {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		for _, c := range cats {
			fmt.Fprintf(w, "  %-22s %s\n", c, strings.Join(s.MatchedTerms[c], ", "))
		}
	}

	if len(s.MultipliersApplied) > 0 {
		fmt.Fprintln(w, "\nMultipliers and boosts:")
		keys := make([]string, 0, len(s.MultipliersApplied))
		for k := range s.MultipliersApplied {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-28s %.2f\n", k, s.MultipliersApplied[k])
		}
	}

	ri := s.RevenueImpact
	fmt.Fprintln(w, "\nRevenue impact:")
	fmt.Fprintf(w, "  %-12s %.1f\n", "immediate", ri.Immediate)
	fmt.Fprintf(w, "  %-12s %.1f\n", "margin", ri.Margin)
	fmt.Fprintf(w, "  %-12s %.1f\n", "competitive", ri.Competitive)
	fmt.Fprintf(w, "  %-12s %.1f\n", "strategic", ri.Strategic)
	fmt.Fprintf(w, "  %-12s %.1f\n", "urgency", ri.Urgency)
}
