package mapview

import (
	"fmt"

	"welfare-advisor/internal/domain"
)

// MarkerLayer owns the pins currently drawn on one map. Every Render replaces
// the previous pins; Clear removes them so no pin outlives its map.
type MarkerLayer struct {
	m      Map
	placed []PlacedMarker
}

// NewMarkerLayer creates an empty layer on m.
func NewMarkerLayer(m Map) *MarkerLayer {
	return &MarkerLayer{m: m}
}

// Render draws one pin per item. The pin of selectedID uses the selected
// image. onClick, when set, receives the clicked item.
func (l *MarkerLayer) Render(items []domain.RecommendationItem, selectedID string, onClick func(domain.RecommendationItem)) error {
	l.Clear()
	for _, it := range items {
		if it.Location == nil {
			continue
		}
		image := DefaultMarkerImage
		if selectedID != "" && it.BenefitID == selectedID {
			image = SelectedMarkerImage
		}
		var click func()
		if onClick != nil {
			clicked := it
			click = func() { onClick(clicked) }
		}
		pm, err := l.m.AddMarker(MarkerOptions{
			Position: *it.Location,
			Title:    it.Title,
			ImageURL: image,
			OnClick:  click,
		})
		if err != nil {
			l.Clear()
			return fmt.Errorf("mapview: add marker %q: %w", it.BenefitID, err)
		}
		l.placed = append(l.placed, pm)
	}
	return nil
}

// Clear removes every pin drawn by this layer.
func (l *MarkerLayer) Clear() {
	for _, pm := range l.placed {
		pm.Remove()
	}
	l.placed = nil
}

// Len is the number of pins on the map.
func (l *MarkerLayer) Len() int {
	return len(l.placed)
}
