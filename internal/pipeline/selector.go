package pipeline

import (
	"sort"

	"github.com/sells-group/pricewatch-cli/internal/config"
	"github.com/sells-group/pricewatch-cli/internal/model"
	"github.com/sells-group/pricewatch-cli/internal/patterns"
)

// Selector picks the top-K scored items through a bucket hierarchy:
// business-critical signals first, then engaged-and-relevant, then highly
// relevant, then everything else by composite score. Bucket capacities are
// fractions of K; capacity a bucket leaves unused falls through to the
// remainder. Ordering inside every bucket is the same composite key, so a
// low-relevance item can never outrank a high-relevance one on engagement
// alone.
type Selector struct {
	cfg config.SelectorConfig
}

// NewSelector builds a selector, filling unset config values with the
// standard capacities and thresholds.
func NewSelector(cfg config.SelectorConfig) *Selector {
	if cfg.K <= 0 {
		cfg.K = 200
	}
	if cfg.BucketPct.Critical <= 0 {
		cfg.BucketPct.Critical = 0.4
	}
	if cfg.BucketPct.Engagement <= 0 {
		cfg.BucketPct.Engagement = 0.2
	}
	if cfg.BucketPct.Relevance <= 0 {
		cfg.BucketPct.Relevance = 0.3
	}
	if cfg.EngagementUpvotes <= 0 {
		cfg.EngagementUpvotes = 50
	}
	if cfg.EngagementComments <= 0 {
		cfg.EngagementComments = 20
	}
	if cfg.EngagementTotalMin <= 0 {
		cfg.EngagementTotalMin = 4.0
	}
	if cfg.RelevanceTotalMin <= 0 {
		cfg.RelevanceTotalMin = 7.0
	}
	return &Selector{cfg: cfg}
}

// candidate pairs an item with its composite ranking score.
type candidate struct {
	item      model.ScoredItem
	composite float64
}

// Select returns at most K items in their final report order.
func (s *Selector) Select(items []model.ScoredItem) []model.ScoredItem {
	if len(items) == 0 {
		return nil
	}

	ranked := s.rank(items)

	k := s.cfg.K
	if len(ranked) < k {
		k = len(ranked)
	}

	selected := make([]model.ScoredItem, 0, k)
	taken := make([]bool, len(ranked))

	take := func(cap int, member func(model.ScoredItem) bool) {
		for i, c := range ranked {
			if cap <= 0 || len(selected) >= k {
				return
			}
			if taken[i] || !member(c.item) {
				continue
			}
			taken[i] = true
			selected = append(selected, c.item)
			cap--
		}
	}

	take(int(s.cfg.BucketPct.Critical*float64(s.cfg.K)), s.isCritical)
	take(int(s.cfg.BucketPct.Engagement*float64(s.cfg.K)), s.isEngagedRelevant)
	take(int(s.cfg.BucketPct.Relevance*float64(s.cfg.K)), s.isHighRelevance)
	take(k-len(selected), func(model.ScoredItem) bool { return true })

	return selected
}

// rank orders all candidates by composite score, newest first on ties, URL
// ascending as the final tie-break. The comparator is a total order over
// distinct items, so the result never depends on input order.
func (s *Selector) rank(items []model.ScoredItem) []candidate {
	maxEngagement := 0
	for _, it := range items {
		if e := it.Engagement.Total(); e > maxEngagement {
			maxEngagement = e
		}
	}

	ranked := make([]candidate, len(items))
	for i, it := range items {
		norm := 0.0
		if maxEngagement > 0 {
			// Scaled to [0,10] so engagement can reorder near-ties within
			// a bucket without overpowering relevance.
			norm = 10 * float64(it.Engagement.Total()) / float64(maxEngagement)
		}
		ranked[i] = candidate{item: it, composite: 0.7*it.Score.Total + 0.3*norm}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.composite != b.composite {
			return a.composite > b.composite
		}
		if !a.item.PostedAt.Equal(b.item.PostedAt) {
			return a.item.PostedAt.After(b.item.PostedAt)
		}
		return a.item.URL < b.item.URL
	})
	return ranked
}

// isCritical reports whether the item carries business-critical signals:
// direct business-impact phrases, a partner-tier change, or M&A audit
// activity.
func (s *Selector) isCritical(it model.ScoredItem) bool {
	return it.Score.Matched(patterns.CategoryBusinessImpact) ||
		it.Score.Matched(patterns.CategoryPartnerTierChange) ||
		it.Score.Matched(patterns.CategoryPostAcquisition) ||
		it.Score.Matched(patterns.CategoryLicenseEnforcement)
}

// isEngagedRelevant reports whether the item clears the engagement floor and
// still shows real relevance.
func (s *Selector) isEngagedRelevant(it model.ScoredItem) bool {
	engaged := it.Engagement.Upvotes >= s.cfg.EngagementUpvotes ||
		it.Engagement.Comments >= s.cfg.EngagementComments
	return engaged && it.Score.Total >= s.cfg.EngagementTotalMin
}

func (s *Selector) isHighRelevance(it model.ScoredItem) bool {
	return it.Score.Total >= s.cfg.RelevanceTotalMin
}
