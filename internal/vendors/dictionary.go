package vendors

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Entry describes one canonical vendor.
type Entry struct {
	Aliases       []string `yaml:"aliases"`
	Tier          int      `yaml:"tier"`
	Consolidator  bool     `yaml:"consolidator,omitempty"`
	CloudSecurity bool     `yaml:"cloud_security,omitempty"`
}

// Acquisition is a directed edge from acquirer to target.
type Acquisition struct {
	Acquirer string `yaml:"acquirer"`
	Target   string `yaml:"target"`
	Year     int    `yaml:"year,omitempty"`
}

// Dictionary maps canonical vendor names to their aliases and tier, plus the
// acquisition edges between them. Read-only after load.
type Dictionary struct {
	Vendors      map[string]Entry `yaml:"vendors"`
	Acquisitions []Acquisition    `yaml:"acquisitions"`

	// target -> acquirers, built during Validate
	acquirerIndex map[string][]string
}

// LoadFile reads a dictionary from a YAML file and validates it.
func LoadFile(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vendor: read dictionary %s", path)
	}

	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, eris.Wrapf(err, "vendor: parse dictionary %s", path)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks global alias uniqueness and that the acquisition edges form
// a DAG. It also builds the target -> acquirer index.
func (d *Dictionary) Validate() error {
	var errs []string

	seen := map[string]string{}
	for canonical, entry := range d.Vendors {
		if entry.Tier < 1 || entry.Tier > 4 {
			errs = append(errs, fmt.Sprintf("vendor %q: tier %d out of range 1-4", canonical, entry.Tier))
		}
		for _, term := range append([]string{canonical}, entry.Aliases...) {
			term = strings.ToLower(term)
			if prev, ok := seen[term]; ok && prev != canonical {
				errs = append(errs, fmt.Sprintf("alias %q claimed by both %q and %q", term, prev, canonical))
				continue
			}
			seen[term] = canonical
		}
	}

	d.acquirerIndex = map[string][]string{}
	for _, edge := range d.Acquisitions {
		if _, ok := d.Vendors[edge.Acquirer]; !ok {
			errs = append(errs, fmt.Sprintf("acquisition acquirer %q not in dictionary", edge.Acquirer))
		}
		if _, ok := d.Vendors[edge.Target]; !ok {
			errs = append(errs, fmt.Sprintf("acquisition target %q not in dictionary", edge.Target))
		}
		d.acquirerIndex[edge.Target] = append(d.acquirerIndex[edge.Target], edge.Acquirer)
	}
	for _, acquirers := range d.acquirerIndex {
		sort.Strings(acquirers)
	}

	if cycle := d.findCycle(); cycle != "" {
		errs = append(errs, fmt.Sprintf("acquisition edges contain a cycle through %q", cycle))
	}

	if len(errs) > 0 {
		return eris.Errorf("vendor: invalid dictionary: %s", strings.Join(errs, "; "))
	}
	return nil
}

// findCycle walks target -> acquirer edges and returns a vendor on a cycle,
// or "" when the edges form a DAG.
func (d *Dictionary) findCycle() string {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := map[string]int{}

	var visit func(v string) string
	visit = func(v string) string {
		color[v] = grey
		for _, next := range d.acquirerIndex[v] {
			switch color[next] {
			case grey:
				return next
			case white:
				if hit := visit(next); hit != "" {
					return hit
				}
			}
		}
		color[v] = black
		return ""
	}

	targets := make([]string, 0, len(d.acquirerIndex))
	for t := range d.acquirerIndex {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	for _, t := range targets {
		if color[t] == white {
			if hit := visit(t); hit != "" {
				return hit
			}
		}
	}
	return ""
}

// Tier returns the tier of a canonical vendor, or 4 when unknown.
func (d *Dictionary) Tier(canonical string) int {
	if e, ok := d.Vendors[canonical]; ok {
		return e.Tier
	}
	return 4
}

// TierVendors returns the canonical names at the given tier, sorted.
func (d *Dictionary) TierVendors(tier int) []string {
	var names []string
	for canonical, entry := range d.Vendors {
		if entry.Tier == tier {
			names = append(names, canonical)
		}
	}
	sort.Strings(names)
	return names
}

// ConfidenceBoost maps a vendor's tier to its confidence contribution.
func (d *Dictionary) ConfidenceBoost(canonical string) float64 {
	switch d.Tier(canonical) {
	case 1:
		return 0.30
	case 2:
		return 0.20
	case 3:
		return 0.10
	default:
		return 0.0
	}
}

// IsConsolidator reports whether the vendor is flagged as a tier-1
// consolidator acquirer.
func (d *Dictionary) IsConsolidator(canonical string) bool {
	return d.Vendors[canonical].Consolidator
}

// IsCloudSecurity reports whether the vendor is a cloud-security platform.
func (d *Dictionary) IsCloudSecurity(canonical string) bool {
	return d.Vendors[canonical].CloudSecurity
}

// AcquisitionChain walks target -> acquirer edges from v and returns every
// acquirer reachable from it, breadth-first.
func (d *Dictionary) AcquisitionChain(v string) []string {
	var chain []string
	visited := map[string]bool{v: true}
	frontier := []string{v}

	for len(frontier) > 0 {
		var next []string
		for _, t := range frontier {
			for _, a := range d.acquirerIndex[t] {
				if visited[a] {
					continue
				}
				visited[a] = true
				chain = append(chain, a)
				next = append(next, a)
			}
		}
		frontier = next
	}
	return chain
}

// InAcquisitionEdge reports whether v appears in any acquisition edge, as
// acquirer or target.
func (d *Dictionary) InAcquisitionEdge(v string) bool {
	if len(d.acquirerIndex[v]) > 0 {
		return true
	}
	for _, edge := range d.Acquisitions {
		if edge.Acquirer == v {
			return true
		}
	}
	return false
}

// Acquirers returns the direct acquirers of v.
func (d *Dictionary) Acquirers(v string) []string {
	return d.acquirerIndex[v]
}
