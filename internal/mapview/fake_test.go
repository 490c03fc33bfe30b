package mapview

import (
	"context"
	"sync"

	"welfare-advisor/internal/domain"
)

type fakeSDK struct {
	mu     sync.Mutex
	maps   []*fakeMap
	mapErr error
}

func (s *fakeSDK) NewMap(_ context.Context, center domain.Location, level int) (Map, error) {
	if s.mapErr != nil {
		return nil, s.mapErr
	}
	m := &fakeMap{center: center, level: level}
	s.mu.Lock()
	s.maps = append(s.maps, m)
	s.mu.Unlock()
	return m, nil
}

type fakeMap struct {
	mu      sync.Mutex
	center  domain.Location
	level   int
	markers []*fakeMarker
	addErr  error
}

func (m *fakeMap) SetCenter(center domain.Location) {
	m.mu.Lock()
	m.center = center
	m.mu.Unlock()
}

func (m *fakeMap) AddMarker(opts MarkerOptions) (PlacedMarker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return nil, m.addErr
	}
	fm := &fakeMarker{opts: opts, onMap: true}
	m.markers = append(m.markers, fm)
	return fm, nil
}

// live returns the markers that have not been removed.
func (m *fakeMap) live() []*fakeMarker {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*fakeMarker
	for _, fm := range m.markers {
		if fm.onMap {
			out = append(out, fm)
		}
	}
	return out
}

type fakeMarker struct {
	opts  MarkerOptions
	onMap bool
}

func (f *fakeMarker) Remove() { f.onMap = false }

type fakeLoader struct {
	sdk SDK
	err error
}

func (f *fakeLoader) Load(context.Context) (SDK, error) {
	return f.sdk, f.err
}
