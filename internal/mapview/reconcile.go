package mapview

import (
	"welfare-advisor/internal/domain"
	"welfare-advisor/internal/recommend"
)

// MaxItems caps the pins shown on the map.
const MaxItems = recommend.TopCount

const backfillCategory = "복지"

// Reconcile derives the map pins from the latest recommendations and the
// location index. Located recommendations come first in score order; the
// remaining slots are filled from the raw marker list in server order,
// skipping benefits that are already pinned. The result is rebuilt from
// scratch on every call.
func Reconcile(latest []domain.RecommendationItem, idx *recommend.LocationIndex) []domain.RecommendationItem {
	items := make([]domain.RecommendationItem, 0, MaxItems)
	seen := make(map[string]struct{}, MaxItems)

	for _, rec := range recommend.Rank(latest) {
		if len(items) == MaxItems {
			break
		}
		rec = recommend.Normalize(rec, idx)
		if !rec.Located() {
			continue
		}
		if _, dup := seen[rec.BenefitID]; dup {
			continue
		}
		seen[rec.BenefitID] = struct{}{}
		items = append(items, rec)
	}

	for _, m := range idx.Markers() {
		if len(items) == MaxItems {
			break
		}
		if m.ID == "" || !m.Location().Valid() {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		loc := m.Location()
		items = append(items, domain.RecommendationItem{
			BenefitID: m.ID,
			Title:     m.Title,
			Category:  backfillCategory,
			Score:     0,
			Location:  &loc,
		})
	}
	return items
}
