package vendors

import (
	"sort"

	"github.com/sells-group/pricewatch-cli/internal/model"
)

// tierWeight maps a vendor tier to its rollup ranking weight.
func tierWeight(tier int) float64 {
	switch tier {
	case 1:
		return 3.0
	case 2:
		return 2.0
	case 3:
		return 1.5
	default:
		return 1.0
	}
}

// acquirerCoCredit is the mention share an acquirer earns whenever one of
// its targets is mentioned without it.
const acquirerCoCredit = 0.5

// Rollup ranks the vendors detected across the selected items. Each item
// counts once per detected vendor; a mention of an acquired target also
// credits every acquirer up its chain with a co-credit, so consolidation
// chatter surfaces under the owner even when posts only name the target.
// The result is sorted by weighted score, then mentions, then name, and
// truncated to topN (all vendors when topN <= 0).
func (d *Dictionary) Rollup(items []model.ScoredItem, topN int) []model.VendorMention {
	mentions := map[string]float64{}

	for _, item := range items {
		credited := map[string]bool{}
		for _, v := range item.Score.VendorsDetected {
			if credited[v] {
				continue
			}
			credited[v] = true
			mentions[v] += 1.0
		}
		// Direct detections outrank co-credits: an acquirer named in the
		// item itself keeps its full mention.
		for _, v := range item.Score.VendorsDetected {
			for _, acquirer := range d.AcquisitionChain(v) {
				if credited[acquirer] {
					continue
				}
				credited[acquirer] = true
				mentions[acquirer] += acquirerCoCredit
			}
		}
	}

	rollup := make([]model.VendorMention, 0, len(mentions))
	for vendor, count := range mentions {
		tier := d.Tier(vendor)
		rollup = append(rollup, model.VendorMention{
			Vendor:   vendor,
			Mentions: count,
			Tier:     tier,
			Weighted: count * tierWeight(tier),
		})
	}

	sort.Slice(rollup, func(i, j int) bool {
		if rollup[i].Weighted != rollup[j].Weighted {
			return rollup[i].Weighted > rollup[j].Weighted
		}
		if rollup[i].Mentions != rollup[j].Mentions {
			return rollup[i].Mentions > rollup[j].Mentions
		}
		return rollup[i].Vendor < rollup[j].Vendor
	})

	if topN > 0 && len(rollup) > topN {
		rollup = rollup[:topN]
	}
	return rollup
}
