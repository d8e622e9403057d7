package scorer

import (
	"time"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/patterns"
	"github.com/sells-group/pricewatch-cli/internal/vendors"
)

// Scorer stamps raw items with a relevance score, urgency class and
// revenue-impact decomposition. Scoring is a pure function of the item text,
// engagement and posted time; two runs over the same input produce identical
// output.
type Scorer struct {
	cfg     config.ScoringConfig
	set     *patterns.Set
	dict    *vendors.Dictionary
	matcher *vendors.Matcher

	now func() time.Time
}

// New builds a Scorer. The config must already be validated.
func New(cfg config.ScoringConfig, set *patterns.Set, dict *vendors.Dictionary, matcher *vendors.Matcher) *Scorer {
	return &Scorer{
		cfg:     cfg,
		set:     set,
		dict:    dict,
		matcher: matcher,
		now:     time.Now,
	}
}

// PatternWarnings reports how many keyword patterns failed to compile and run
// in substring fallback, for run accounting.
func (s *Scorer) PatternWarnings() int {
	return s.set.Warnings()
}

// Score evaluates one item.
func (s *Scorer) Score(item model.RawItem) model.Score {
	text := item.Text()
	matches := s.set.Match(text)
	vm := s.matcher.Match(text)

	score := model.Score{
		MatchedTerms:       map[string][]string(matches),
		VendorsDetected:    vm.Vendors,
		MultipliersApplied: map[string]float64{},
	}

	total := s.keywordScore(matches)
	vendorScore := s.vendorScore(vm.Vendors)
	total += vendorScore
	total += s.recencyScore(item.PostedAt)

	csBoost := s.cloudSecurityBoost(matches, vm.Vendors)
	total += csBoost

	maBoost := s.maBoost(matches, vm.Vendors)
	total += maBoost

	partnerBoost := s.partnershipBoost(matches)
	total += partnerBoost

	// MSP context multiplies the sum once, before urgency and revenue
	// impact are folded in.
	if matches.Has(patterns.CategoryMSPContext) {
		total *= s.cfg.MSPMultiplier
		score.MultipliersApplied["msp_context"] = s.cfg.MSPMultiplier
	}

	if total < 0 {
		total = 0
	}

	score.Urgency = s.classifyUrgency(matches, total)

	score.RevenueImpact = s.revenueImpact(matches, item, vendorScore, csBoost, maBoost, partnerBoost, score.Urgency)
	total += score.RevenueImpact.Weighted(s.cfg.RevenueWeights)

	score.Total = total
	return score
}

func (s *Scorer) keywordScore(m patterns.Matches) float64 {
	total := capped(float64(m.Count(patterns.CategoryPricing))*s.cfg.PricingWeight, s.cfg.PricingCap)
	total += capped(float64(m.Count(patterns.CategoryUrgencyHigh))*s.cfg.UrgencyHighWeight, s.cfg.UrgencyHighCap)
	total += capped(float64(m.Count(patterns.CategoryUrgencyMedium))*s.cfg.UrgencyMediumWeight, s.cfg.UrgencyMediumCap)
	total += capped(float64(m.Count(patterns.CategorySupply))*s.cfg.ContextWeight, s.cfg.ContextCap)
	total += capped(float64(m.Count(patterns.CategoryStrategy))*s.cfg.ContextWeight, s.cfg.ContextCap)
	total += capped(float64(m.Count(patterns.CategoryTechnology))*s.cfg.ContextWeight, s.cfg.ContextCap)
	return total
}

func (s *Scorer) vendorScore(vendors []string) float64 {
	score := capped(float64(len(vendors))*s.cfg.VendorWeight, s.cfg.VendorCap)
	for _, v := range vendors {
		if s.dict.Tier(v) == 1 {
			score += s.cfg.Tier1Bonus
			break
		}
	}
	return score
}

func (s *Scorer) recencyScore(postedAt time.Time) float64 {
	age := s.now().Sub(postedAt)
	switch {
	case age <= 24*time.Hour:
		return s.cfg.RecencyDay
	case age <= 7*24*time.Hour:
		return s.cfg.RecencyWeek
	default:
		return 0
	}
}

// cloudSecurityBoost fires when a cloud-security phrase and a pricing-change
// phrase both hit, with an extra bump when a detected vendor is itself a
// cloud-security platform.
func (s *Scorer) cloudSecurityBoost(m patterns.Matches, vendors []string) float64 {
	if !m.Has(patterns.CategoryCloudSecurity) || !m.Has(patterns.CategoryPricingChange) {
		return 0
	}
	boost := s.cfg.CloudSecurityBoost
	for _, v := range vendors {
		if s.dict.IsCloudSecurity(v) {
			boost += s.cfg.CloudSecurityVendorBoost
			break
		}
	}
	return boost
}

// maBoost fires when a post-acquisition or audit pattern hits and a detected
// vendor sits on an acquisition edge.
func (s *Scorer) maBoost(m patterns.Matches, vendors []string) float64 {
	if !m.Has(patterns.CategoryPostAcquisition) && !m.Has(patterns.CategoryLicenseEnforcement) {
		return 0
	}

	involved := false
	consolidator := false
	for _, v := range vendors {
		if !s.dict.InAcquisitionEdge(v) {
			continue
		}
		involved = true
		if s.dict.IsConsolidator(v) {
			consolidator = true
		}
		for _, acquirer := range s.dict.AcquisitionChain(v) {
			if s.dict.IsConsolidator(acquirer) {
				consolidator = true
			}
		}
	}
	if !involved {
		return 0
	}

	boost := s.cfg.MABoost
	if consolidator {
		boost += s.cfg.MAConsolidatorBoost
	}
	if m.Has(patterns.CategoryLicenseEnforcement) {
		boost += s.cfg.MALicenseAuditBoost
	}
	return capped(boost, s.cfg.MACap)
}

func (s *Scorer) partnershipBoost(m patterns.Matches) float64 {
	var boost float64
	if m.Has(patterns.CategoryPartnership) {
		boost += s.cfg.PartnershipBoost
	}
	if m.Has(patterns.CategoryPartnerTierChange) {
		boost += s.cfg.PartnerTierChangeBoost
	}
	if m.Has(patterns.CategoryRelationshipChange) {
		boost += s.cfg.RelationshipChangeBoost
	}
	return capped(boost, s.cfg.PartnershipCap)
}

func (s *Scorer) classifyUrgency(m patterns.Matches, total float64) model.Urgency {
	if m.Has(patterns.CategoryUrgencyHigh) {
		return model.UrgencyHigh
	}
	if m.Has(patterns.CategoryDeadline) && m.Has(patterns.CategoryScale) {
		return model.UrgencyHigh
	}
	if m.Has(patterns.CategoryUrgencyMedium) || total >= s.cfg.MediumTotalMin {
		return model.UrgencyMedium
	}
	return model.UrgencyLow
}

// revenueImpact derives the five [0,10] axes from category matches,
// engagement and the boosts already computed.
func (s *Scorer) revenueImpact(m patterns.Matches, item model.RawItem, vendorScore, csBoost, maBoost, partnerBoost float64, urgency model.Urgency) model.RevenueImpact {
	engagement := capped(float64(item.Engagement.Total())/50.0, 2.0)

	return model.RevenueImpact{
		Immediate: clamp10(2.0*float64(m.Count(patterns.CategoryPricing)) +
			2.0*float64(m.Count(patterns.CategoryUrgencyHigh)) +
			engagement),
		Margin: clamp10(2.0*float64(m.Count(patterns.CategorySupply)) +
			vendorScore + csBoost),
		Competitive: clamp10(partnerBoost + maBoost),
		Strategic: clamp10(2.0*float64(m.Count(patterns.CategoryStrategy)) +
			2.0*float64(m.Count(patterns.CategoryTechnology))),
		Urgency: urgency.Axis(),
	}
}

func capped(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
