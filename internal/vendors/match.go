package vendors

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Match is the result of running the matcher over a text.
type Match struct {
	Vendors []string            // sorted canonical names
	Hits    map[string][]string // canonical -> aliases that matched
}

// Matcher finds canonical vendors in free text. Matching is case-insensitive
// and word-boundary anchored; when aliases overlap within a span the longest
// one wins.
type Matcher struct {
	re     *regexp.Regexp
	byTerm map[string]string // lowercase term -> canonical
}

// NewMatcher compiles a matcher from the dictionary. Canonical names match
// alongside their aliases.
func NewMatcher(d *Dictionary) (*Matcher, error) {
	byTerm := map[string]string{}
	for canonical, entry := range d.Vendors {
		byTerm[strings.ToLower(canonical)] = canonical
		for _, alias := range entry.Aliases {
			byTerm[strings.ToLower(alias)] = canonical
		}
	}

	terms := make([]string, 0, len(byTerm))
	for t := range byTerm {
		terms = append(terms, t)
	}
	// Longest first so the alternation prefers the longest alias at any
	// position; ties broken lexically for a stable pattern.
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}

	re, err := regexp.Compile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, eris.Wrap(err, "vendor: compile matcher")
	}

	return &Matcher{re: re, byTerm: byTerm}, nil
}

// Match scans text for vendor terms.
func (m *Matcher) Match(text string) Match {
	lower := strings.ToLower(text)

	hits := map[string][]string{}
	seenAlias := map[string]map[string]bool{}

	for _, term := range m.re.FindAllString(lower, -1) {
		canonical := m.byTerm[term]
		if canonical == "" {
			continue
		}
		if seenAlias[canonical] == nil {
			seenAlias[canonical] = map[string]bool{}
		}
		if seenAlias[canonical][term] {
			continue
		}
		seenAlias[canonical][term] = true
		hits[canonical] = append(hits[canonical], term)
	}

	vendors := make([]string, 0, len(hits))
	for v := range hits {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)

	return Match{Vendors: vendors, Hits: hits}
}
