package recommend

import (
	"sync/atomic"

	"welfare-advisor/internal/domain"
)

// LocationIndex is an immutable snapshot of the locations endpoint: the raw
// marker list plus a benefit id lookup built from it. A new index is built for
// every successful fetch; existing indexes are never modified.
type LocationIndex struct {
	byID    map[string]domain.Location
	markers []domain.Marker
}

// NewLocationIndex builds an index from the marker list. Markers without an id
// or with zero coordinates are kept in the marker list but not indexed. When a
// benefit id repeats, the last marker wins.
func NewLocationIndex(markers []domain.Marker) *LocationIndex {
	idx := &LocationIndex{
		byID:    make(map[string]domain.Location, len(markers)),
		markers: append([]domain.Marker(nil), markers...),
	}
	for _, m := range markers {
		if m.ID == "" || !m.Location().Valid() {
			continue
		}
		idx.byID[m.ID] = m.Location()
	}
	return idx
}

// Lookup returns the indexed location of a benefit. A nil index has no
// entries.
func (x *LocationIndex) Lookup(benefitID string) (domain.Location, bool) {
	if x == nil || benefitID == "" {
		return domain.Location{}, false
	}
	loc, ok := x.byID[benefitID]
	return loc, ok
}

// Markers returns a copy of the raw marker list in server order.
func (x *LocationIndex) Markers() []domain.Marker {
	if x == nil {
		return nil
	}
	return append([]domain.Marker(nil), x.markers...)
}

// Len is the number of indexed benefit ids.
func (x *LocationIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.byID)
}

// IndexStore holds the current LocationIndex. Readers always observe a
// complete snapshot; writers replace it wholesale.
type IndexStore struct {
	current atomic.Pointer[LocationIndex]
}

// Load returns the current snapshot, or an empty index before the first
// successful fetch.
func (s *IndexStore) Load() *LocationIndex {
	if idx := s.current.Load(); idx != nil {
		return idx
	}
	return emptyIndex
}

// Replace swaps in a new snapshot.
func (s *IndexStore) Replace(idx *LocationIndex) {
	if idx == nil {
		idx = emptyIndex
	}
	s.current.Store(idx)
}

var emptyIndex = NewLocationIndex(nil)
