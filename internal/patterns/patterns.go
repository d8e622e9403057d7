package patterns

import (
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Category names used by the scorer. Keyword files may define additional
// categories; unknown ones are compiled but ignored by scoring.
const (
	CategoryPricing            = "pricing"
	CategoryUrgencyHigh        = "urgency_high"
	CategoryUrgencyMedium      = "urgency_medium"
	CategorySupply             = "supply"
	CategoryStrategy           = "strategy"
	CategoryTechnology         = "technology"
	CategoryCloudSecurity      = "cloud_security"
	CategoryPricingChange      = "pricing_change"
	CategoryPostAcquisition    = "post_acquisition"
	CategoryLicenseEnforcement = "license_enforcement"
	CategoryPartnership        = "partnership"
	CategoryPartnerTierChange  = "partner_tier_change"
	CategoryRelationshipChange = "relationship_change"
	CategoryMSPContext         = "msp_context"
	CategoryBusinessImpact     = "business_impact"
	CategoryDeadline           = "deadline"
	CategoryScale              = "scale"
)

type compiledPhrase struct {
	phrase string
	re     *regexp.Regexp // nil means substring fallback
}

// Set holds the compiled matchers for every keyword category.
type Set struct {
	categories map[string][]compiledPhrase
	warnings   int
}

// Matches maps category name to the phrases found in a text.
type Matches map[string][]string

// Has reports whether any phrase of the category matched.
func (m Matches) Has(category string) bool { return len(m[category]) > 0 }

// Count returns the number of matched phrases in the category.
func (m Matches) Count(category string) int { return len(m[category]) }

// Compile builds a Set from category keyword lists. A phrase that fails to
// compile falls back to plain substring matching and counts as a warning;
// compilation itself never fails.
func Compile(keywords map[string][]string) *Set {
	s := &Set{categories: map[string][]compiledPhrase{}}

	for category, phrases := range keywords {
		for _, phrase := range phrases {
			norm := normalize(phrase)
			if norm == "" {
				continue
			}
			re, err := regexp.Compile(boundaryPattern(norm))
			if err != nil {
				zap.L().Warn("patterns: phrase failed to compile, using substring match",
					zap.String("category", category),
					zap.String("phrase", norm),
					zap.Error(err))
				s.warnings++
				s.categories[category] = append(s.categories[category], compiledPhrase{phrase: norm})
				continue
			}
			s.categories[category] = append(s.categories[category], compiledPhrase{phrase: norm, re: re})
		}
	}

	return s
}

// Warnings returns how many phrases fell back to substring matching.
func (s *Set) Warnings() int { return s.warnings }

// Match scans the text once and returns every phrase hit per category.
func (s *Set) Match(text string) Matches {
	lower := strings.ToLower(text)
	out := Matches{}

	for category, phrases := range s.categories {
		for _, p := range phrases {
			if p.re != nil {
				if p.re.MatchString(lower) {
					out[category] = append(out[category], p.phrase)
				}
				continue
			}
			if strings.Contains(lower, p.phrase) {
				out[category] = append(out[category], p.phrase)
			}
		}
	}

	return out
}

// normalize lowercases and collapses interior whitespace.
func normalize(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// boundaryPattern wraps the phrase in word-boundary anchors. An anchor is
// only added on a side whose adjacent character is a word character, so
// phrases ending in punctuation still match at string edges.
func boundaryPattern(phrase string) string {
	pat := phrase

	runes := []rune(phrase)
	if isWordRune(runes[0]) {
		pat = `\b` + pat
	}
	if isWordRune(runes[len(runes)-1]) {
		pat = pat + `\b`
	}
	return pat
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// LoadKeywords reads a category -> phrases mapping from a YAML file.
func LoadKeywords(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "patterns: read keywords %s", path)
	}

	var keywords map[string][]string
	if err := yaml.Unmarshal(data, &keywords); err != nil {
		return nil, eris.Wrapf(err, "patterns: parse keywords %s", path)
	}
	return keywords, nil
}
