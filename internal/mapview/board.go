package mapview

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"welfare-advisor/internal/domain"
	"welfare-advisor/internal/recommend"
)

// SDKLoader is satisfied by *Loader.
type SDKLoader interface {
	Load(ctx context.Context) (SDK, error)
}

// Board is the map side of the advisor. It derives the pins from the chat
// side's latest recommendations and the location index, holds the shared
// selection, and draws pins while the map is shown. It reads chat state but
// never writes it.
type Board struct {
	loader    SDKLoader
	selection *Selection

	mu       sync.Mutex
	latest   []domain.RecommendationItem
	index    *recommend.LocationIndex
	items    []domain.RecommendationItem
	m        Map
	layer    *MarkerLayer
	onSelect func(domain.RecommendationItem)
}

// NewBoard creates a Board. A nil loader leaves the map permanently hidden;
// pins are still derived so the chat side can tell whether a map exists.
func NewBoard(loader SDKLoader) *Board {
	b := &Board{
		loader:    loader,
		selection: &Selection{},
	}
	b.selection.OnChange(func(string) { b.redraw() })
	return b
}

// OnMarkerSelect registers the callback run after a pin click has updated the
// selection.
func (b *Board) OnMarkerSelect(fn func(domain.RecommendationItem)) {
	b.mu.Lock()
	b.onSelect = fn
	b.mu.Unlock()
}

// SetRecommendations replaces the latest recommendations and re-derives the
// pins.
func (b *Board) SetRecommendations(latest []domain.RecommendationItem) {
	b.mu.Lock()
	b.latest = slices.Clone(latest)
	b.recomputeLocked()
	b.mu.Unlock()
	b.redraw()
}

// SetLocations replaces the location index and re-derives the pins.
func (b *Board) SetLocations(idx *recommend.LocationIndex) {
	b.mu.Lock()
	b.index = idx
	b.recomputeLocked()
	b.mu.Unlock()
	b.redraw()
}

// ClearSelection resets the shared selection.
func (b *Board) ClearSelection() {
	b.selection.Clear()
}

// Select marks benefitID as selected.
func (b *Board) Select(benefitID string) {
	b.selection.Select(benefitID)
}

// IsSelected reports whether benefitID is the shared selection.
func (b *Board) IsSelected(benefitID string) bool {
	return b.selection.IsSelected(benefitID)
}

// Items returns the current pins, at most MaxItems.
func (b *Board) Items() []domain.RecommendationItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// CanView reports whether there is anything to put on the map.
func (b *Board) CanView() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) > 0
}

// Visible reports whether the map is currently shown.
func (b *Board) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m != nil
}

// Show loads the map SDK and draws the pins. It returns false without error
// when there is nothing to show or the SDK cannot be loaded; map failures
// never reach the chat flow.
func (b *Board) Show(ctx context.Context) bool {
	if !b.CanView() || b.loader == nil {
		return false
	}
	sdk, err := b.loader.Load(ctx)
	if err != nil {
		slog.Warn("map sdk unavailable", "err", err)
		return false
	}

	b.mu.Lock()
	if b.m == nil {
		m, err := sdk.NewMap(ctx, centerOf(b.items), DefaultZoomLevel)
		if err != nil {
			b.mu.Unlock()
			slog.Warn("map creation failed", "err", err)
			return false
		}
		b.m = m
		b.layer = NewMarkerLayer(m)
	}
	b.mu.Unlock()

	b.redraw()
	return true
}

// Close removes every pin and drops the map instance.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.layer != nil {
		b.layer.Clear()
	}
	b.layer = nil
	b.m = nil
}

func (b *Board) recomputeLocked() {
	b.items = Reconcile(b.latest, b.index)
}

func (b *Board) redraw() {
	selected := b.selection.Current()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.m == nil {
		return
	}
	if len(b.items) == 0 {
		b.layer.Clear()
		return
	}
	b.m.SetCenter(centerOf(b.items))
	if err := b.layer.Render(b.items, selected, b.handleClick); err != nil {
		slog.Warn("map render failed", "err", err)
	}
}

func (b *Board) handleClick(it domain.RecommendationItem) {
	b.selection.Select(it.BenefitID)

	b.mu.Lock()
	fn := b.onSelect
	b.mu.Unlock()
	if fn != nil {
		fn(it)
	}
}

func centerOf(items []domain.RecommendationItem) domain.Location {
	if len(items) > 0 && items[0].Location != nil {
		return *items[0].Location
	}
	return FallbackCenter
}
