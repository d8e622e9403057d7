package summarize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

// sourceIDPattern matches citation markers of the form [SOURCE_ID:7].
var sourceIDPattern = regexp.MustCompile(`\[SOURCE_ID:(\d+)\]`)

// quantifierPattern finds numeric quantifiers: currency amounts,
// percentages, multipliers, and counts with a magnitude word.
var quantifierPattern = regexp.MustCompile(
	`[$€£]\s?\d[\d,.]*` +
		`|\d[\d,.]*\s?(?:%|percent)` +
		`|\b\d[\d,.]*\s?x\b` +
		`|\b\d[\d,.]*\s?(?:million|billion|seats?|users?|licen[cs]es?|endpoints?|cores?)\b`)

// validate filters the raw insights down to attributable ones and derives
// priority, confidence, and redundancy for each. The dropped count covers
// malformed insights, uncited ones, out-of-range citations, and collapsed
// duplicates.
func (s *Summarizer) validate(reply llmReply, bindings []model.SourceBinding) ([]model.Insight, int) {
	byID := make(map[int]model.ScoredItem, len(bindings))
	for _, b := range bindings {
		byID[b.SourceID] = b.Item
	}

	var insights []model.Insight
	seen := map[string]bool{}
	dropped := 0

	for _, raw := range reply.Insights {
		text := strings.TrimSpace(raw.Text)
		if text == "" || !model.ValidRole(raw.Role) {
			dropped++
			zap.L().Warn("summarize: dropping malformed insight", zap.String("role", raw.Role))
			continue
		}

		ids := citedIDs(text)
		if len(ids) == 0 {
			dropped++
			zap.L().Warn("summarize: dropping uncited insight")
			continue
		}
		if unknown, ok := outOfRange(ids, byID); ok {
			dropped++
			zap.L().Warn("summarize: dropping insight citing unknown source", zap.Int("source_id", unknown))
			continue
		}

		key := normalizeText(text)
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true

		cited := make([]model.ScoredItem, len(ids))
		for i, id := range ids {
			cited[i] = byID[id]
		}

		quant := hasQuantifier(text)
		insights = append(insights, model.Insight{
			Role:           model.Role(raw.Role),
			Text:           text,
			Priority:       finalPriority(raw.ClaimedPriority, derivePriority(cited)),
			Confidence:     s.deriveConfidence(cited, quant),
			CitedSourceIDs: sortedIDs(ids),
			Redundant:      s.isRedundant(text, cited, quant),
		})
	}
	return insights, dropped
}

// citedIDs returns the distinct SOURCE_ID markers in text, in
// first-appearance order.
func citedIDs(text string) []int {
	var ids []int
	seen := map[int]bool{}
	for _, m := range sourceIDPattern.FindAllStringSubmatch(text, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// outOfRange returns the first cited id with no binding.
func outOfRange(ids []int, byID map[int]model.ScoredItem) (int, bool) {
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return id, true
		}
	}
	return 0, false
}

// hasQuantifier reports whether text carries a numeric quantifier once
// citation markers are removed.
func hasQuantifier(text string) bool {
	return quantifierPattern.MatchString(sourceIDPattern.ReplaceAllString(text, ""))
}

// normalizeText strips citation markers, lowercases, and collapses
// whitespace so a restated insight dedupes against the first.
func normalizeText(text string) string {
	text = sourceIDPattern.ReplaceAllString(text, "")
	text = strings.ToLower(text)
	return strings.Join(strings.Fields(text), " ")
}

func sortedIDs(ids []int) []int {
	out := append([]int(nil), ids...)
	sort.Ints(out)
	return out
}

// derivePriority maps the most urgent cited source to a priority tier.
func derivePriority(cited []model.ScoredItem) model.Priority {
	derived := model.PriorityGamma
	for _, item := range cited {
		switch item.Score.Urgency {
		case model.UrgencyHigh:
			return model.PriorityAlpha
		case model.UrgencyMedium:
			derived = model.PriorityBeta
		}
	}
	return derived
}

// finalPriority keeps the model's claim only when it is at least as severe
// as the derived tier. The model may escalate, never downgrade.
func finalPriority(claimed string, derived model.Priority) model.Priority {
	c := model.Priority(claimed)
	switch c {
	case model.PriorityAlpha, model.PriorityBeta, model.PriorityGamma:
		if c.AtLeast(derived) {
			return c
		}
	}
	return derived
}

// deriveConfidence assigns a post-hoc tier from citation breadth,
// quantifiers, and vendor weight. The model has no say in it.
func (s *Summarizer) deriveConfidence(cited []model.ScoredItem, quant bool) model.Confidence {
	switch {
	case len(cited) >= 3 && quant:
		return model.ConfidenceHigh
	case len(cited) >= 2:
		return model.ConfidenceMedium
	case len(cited) == 1 && quant && s.citesTopTierVendor(cited):
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// citesTopTierVendor reports whether any cited source detected a tier-1 or
// tier-2 vendor.
func (s *Summarizer) citesTopTierVendor(cited []model.ScoredItem) bool {
	if s.dict == nil {
		return false
	}
	for _, item := range cited {
		for _, v := range item.Score.VendorsDetected {
			if s.dict.Tier(v) <= 2 {
				return true
			}
		}
	}
	return false
}

// isRedundant flags insights that name no vendor anywhere, in their text or
// across their cited sources, and carry no quantifier. They are kept but
// annotated so report readers can skim past them.
func (s *Summarizer) isRedundant(text string, cited []model.ScoredItem, quant bool) bool {
	if quant {
		return false
	}
	if s.matcher != nil && len(s.matcher.Match(text).Vendors) > 0 {
		return false
	}
	for _, item := range cited {
		if len(item.Score.VendorsDetected) > 0 {
			return false
		}
	}
	return true
}
