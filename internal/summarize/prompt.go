package summarize

import (
	"fmt"
	"strings"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

// defaultExcerptChars caps per-source excerpt length when config gives none.
const defaultExcerptChars = 500

// synthesisSystem is the system prompt for the insight synthesis call.
const synthesisSystem = `You are a senior intelligence analyst for a North American IT solutions provider. You turn raw vendor pricing chatter into findings a pricing desk, a procurement team, and a strategy group can act on. You state only what the numbered sources support, and you cite them.`

// synthesisPrompt wraps the numbered source sections with the output
// contract. Slots: source count, source sections.
const synthesisPrompt = `Analyze the following vendor pricing intelligence (%d sources).

%s
Produce findings for exactly these three roles:
- "pricing": price and licensing changes, renewal leverage, discount windows
- "procurement": contract timing, vendor negotiation posture, budget impact
- "strategy": consolidation, M&A fallout, competitive positioning

Return ONLY a JSON object of this exact shape, with no prose around it:
{"insights":[{"role":"pricing","text":"...","claimed_priority":"alpha"}],"executive_summary":"one paragraph"}

Rules:
1. role must be one of "pricing", "procurement", "strategy".
2. Every insight must embed at least one citation marker [SOURCE_ID:k] where k is a source id listed above.
3. Every insight must state a quantitative detail (price, percent, count) or a concrete vendor action.
4. Never state a price, company, or date that does not appear in a cited source.
5. claimed_priority is "alpha" (act this week), "beta" (act this quarter) or "gamma" (watch).`

// repairPrompt is sent as a follow-up turn when the first reply does not
// parse as the required JSON object.
const repairPrompt = `That reply could not be parsed as the required JSON object. Return ONLY the corrected JSON object, with no prose and no code fences:
{"insights":[{"role":"pricing","text":"...","claimed_priority":"alpha"}],"executive_summary":"one paragraph"}`

// Bind assigns invocation-scoped 1-based SOURCE_IDs to the selected items,
// in selection order. IDs are never persisted.
func Bind(items []model.ScoredItem) []model.SourceBinding {
	bindings := make([]model.SourceBinding, len(items))
	for i, item := range items {
		bindings[i] = model.SourceBinding{SourceID: i + 1, Item: item}
	}
	return bindings
}

// buildPrompt renders the full user prompt for a set of bindings.
func buildPrompt(bindings []model.SourceBinding, excerptMax int) string {
	return fmt.Sprintf(synthesisPrompt, len(bindings), sourceSections(bindings, excerptMax))
}

// sourceSections renders the bindings grouped by source kind in
// first-appearance order, one section header per kind.
func sourceSections(bindings []model.SourceBinding, excerptMax int) string {
	var kinds []model.SourceKind
	grouped := map[model.SourceKind][]model.SourceBinding{}
	for _, b := range bindings {
		kind := b.Item.SourceKind
		if _, ok := grouped[kind]; !ok {
			kinds = append(kinds, kind)
		}
		grouped[kind] = append(grouped[kind], b)
	}

	var sb strings.Builder
	for _, kind := range kinds {
		group := grouped[kind]
		fmt.Fprintf(&sb, "=== %s SOURCE (%d items) ===\n", strings.ToUpper(string(kind)), len(group))
		for _, b := range group {
			item := b.Item
			fmt.Fprintf(&sb, "SOURCE_ID: %d\n", b.SourceID)
			fmt.Fprintf(&sb, "TITLE: %s\n", item.Title)
			if ex := excerpt(item.Body, excerptMax); ex != "" {
				fmt.Fprintf(&sb, "EXCERPT: %s\n", ex)
			}
			fmt.Fprintf(&sb, "URL: %s\n", item.URL)
			if len(item.Score.VendorsDetected) > 0 {
				fmt.Fprintf(&sb, "VENDORS: %s\n", strings.Join(item.Score.VendorsDetected, ", "))
			}
			fmt.Fprintf(&sb, "URGENCY: %s\n", item.Score.Urgency)
			sb.WriteString("---\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// excerpt collapses whitespace so the field stays on one prompt line, then
// truncates on a rune boundary.
func excerpt(body string, limit int) string {
	body = strings.Join(strings.Fields(body), " ")
	if limit <= 0 {
		limit = defaultExcerptChars
	}
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "..."
}
