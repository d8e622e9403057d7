package summarize

import (
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pricewatch-cli/pkg/anthropic"
)

// llmInsight is one raw insight as the model returns it, before validation.
type llmInsight struct {
	Role            string `json:"role"`
	Text            string `json:"text"`
	ClaimedPriority string `json:"claimed_priority"`
}

// llmReply is the synthesis reply schema.
type llmReply struct {
	Insights         []llmInsight `json:"insights"`
	ExecutiveSummary string       `json:"executive_summary"`
}

// parseStatus classifies one reply parse attempt.
type parseStatus int

const (
	parseOK parseStatus = iota
	// parseRepairable marks replies a corrective turn could fix.
	parseRepairable
	// parseFatal marks replies with nothing to correct.
	parseFatal
)

type parseOutcome struct {
	status parseStatus
	reply  llmReply
	err    error
}

// parseReply extracts the JSON object from a model reply. Strict decoding
// runs first, then a mechanical repair pass; a reply that survives neither
// is left for a corrective turn. A reply that decodes but carries neither
// insights nor a summary violated the contract just the same.
func parseReply(text string) parseOutcome {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return parseOutcome{status: parseFatal, err: eris.New("summarize: empty reply")}
	}

	var reply llmReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		repaired, repairErr := jsonrepair.RepairJSON(cleaned)
		if repairErr != nil {
			return parseOutcome{status: parseRepairable, err: eris.Wrap(repairErr, "summarize: repair reply")}
		}
		if err = json.Unmarshal([]byte(repaired), &reply); err != nil {
			return parseOutcome{status: parseRepairable, err: eris.Wrap(err, "summarize: decode repaired reply")}
		}
		zap.L().Debug("summarize: reply needed mechanical repair", zap.Int("chars", len(cleaned)))
	}

	if len(reply.Insights) == 0 && strings.TrimSpace(reply.ExecutiveSummary) == "" {
		return parseOutcome{status: parseRepairable, err: eris.New("summarize: reply carried no insights")}
	}
	return parseOutcome{status: parseOK, reply: reply}
}

// extractText concatenates all text content blocks.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "" || b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
