package recommend

import (
	"cmp"
	"slices"

	"welfare-advisor/internal/domain"
)

// TopCount is the number of recommendations shown per turn.
const TopCount = 3

// Normalize returns a copy of item with Location filled from idx when the item
// has none. Items that already carry a location come back unchanged, so
// Normalize is idempotent. The input is never modified.
func Normalize(item domain.RecommendationItem, idx *LocationIndex) domain.RecommendationItem {
	out := item
	if item.Location != nil {
		loc := *item.Location
		out.Location = &loc
		return out
	}
	if loc, ok := idx.Lookup(item.BenefitID); ok {
		out.Location = &loc
	}
	return out
}

// NormalizeAll applies Normalize to every item, preserving order.
func NormalizeAll(items []domain.RecommendationItem, idx *LocationIndex) []domain.RecommendationItem {
	out := make([]domain.RecommendationItem, 0, len(items))
	for _, it := range items {
		out = append(out, Normalize(it, idx))
	}
	return out
}

// Rank returns a copy of items sorted by descending score. Equal scores keep
// their original relative order.
func Rank(items []domain.RecommendationItem) []domain.RecommendationItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b domain.RecommendationItem) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// TopN ranks items and keeps at most n of them.
func TopN(items []domain.RecommendationItem, n int) []domain.RecommendationItem {
	ranked := Rank(items)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
