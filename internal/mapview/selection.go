package mapview

import (
	"slices"
	"sync"
)

// Selection is the single selected benefit shared by chat cards and map
// markers. Both views read it; neither keeps its own flag.
type Selection struct {
	mu        sync.RWMutex
	id        string
	listeners []func(id string)
}

// Current returns the selected benefit id, or "" when nothing is selected.
func (s *Selection) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// IsSelected reports whether benefitID is the current selection.
func (s *Selection) IsSelected(benefitID string) bool {
	if benefitID == "" {
		return false
	}
	return s.Current() == benefitID
}

// Select makes benefitID the current selection.
func (s *Selection) Select(benefitID string) {
	s.set(benefitID)
}

// Clear resets the selection.
func (s *Selection) Clear() {
	s.set("")
}

// OnChange registers fn to run after every change of the selection.
func (s *Selection) OnChange(fn func(id string)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Selection) set(id string) {
	s.mu.Lock()
	if s.id == id {
		s.mu.Unlock()
		return
	}
	s.id = id
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
}
