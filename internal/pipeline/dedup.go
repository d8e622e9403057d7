package pipeline

import (
	"github.com/sells-group/pricewatch-cli/internal/model"
)

// Dedup collapses near-duplicate items before scoring. Items group by
// normalised URL first, then surviving items group again by content hash, so
// a repost under a fresh tracking link and a mirror under a different URL
// both collapse. Within a group the item with the most engagement wins,
// then the newest, then the first seen; survivors keep their group's
// first-appearance order, so the stage is deterministic for a given input.
func Dedup(items []model.RawItem) []model.RawItem {
	byURL := collapse(items, func(it model.RawItem) string {
		if u := model.NormalizeURL(it.URL); u != "" {
			return u
		}
		return "hash:" + it.ContentHash
	})
	return collapse(byURL, func(it model.RawItem) string {
		if it.ContentHash != "" {
			return it.ContentHash
		}
		return "url:" + model.NormalizeURL(it.URL)
	})
}

// collapse groups items by key and keeps one winner per group, preserving
// first-appearance order of the groups.
func collapse(items []model.RawItem, key func(model.RawItem) string) []model.RawItem {
	if len(items) <= 1 {
		return items
	}

	order := make([]string, 0, len(items))
	winners := make(map[string]model.RawItem, len(items))

	for _, it := range items {
		k := key(it)
		incumbent, ok := winners[k]
		if !ok {
			order = append(order, k)
			winners[k] = it
			continue
		}
		winners[k] = keeper(incumbent, it)
	}

	out := make([]model.RawItem, len(order))
	for i, k := range order {
		out[i] = winners[k]
	}
	return out
}

// keeper picks the group survivor: most engagement, then newest, then the
// incumbent (first seen).
func keeper(incumbent, challenger model.RawItem) model.RawItem {
	ci, cc := incumbent.Engagement.Total(), challenger.Engagement.Total()
	if cc > ci {
		return challenger
	}
	if cc == ci && challenger.PostedAt.After(incumbent.PostedAt) {
		return challenger
	}
	return incumbent
}
