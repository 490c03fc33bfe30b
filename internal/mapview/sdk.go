package mapview

import (
	"context"

	"welfare-advisor/internal/domain"
)

// Marker images used for unselected and selected pins.
const (
	DefaultMarkerImage  = "https://t1.daumcdn.net/localimg/localimages/07/mapapidoc/marker_red.png"
	SelectedMarkerImage = "https://t1.daumcdn.net/localimg/localimages/07/mapapidoc/markerStar.png"
)

// DefaultZoomLevel is the initial map level.
const DefaultZoomLevel = 5

// FallbackCenter is used when there is no pin to centre on (Seoul City Hall).
var FallbackCenter = domain.Location{Lat: 37.5665, Lng: 126.9780}

// SDK is the map-rendering capability obtained once the external map script
// has loaded.
type SDK interface {
	NewMap(ctx context.Context, center domain.Location, level int) (Map, error)
}

// Map is a rendered map instance.
type Map interface {
	SetCenter(center domain.Location)
	AddMarker(opts MarkerOptions) (PlacedMarker, error)
}

// MarkerOptions describes one pin. OnClick is invoked by the SDK when the pin
// is clicked.
type MarkerOptions struct {
	Position domain.Location
	Title    string
	ImageURL string
	OnClick  func()
}

// PlacedMarker is a pin currently attached to a map.
type PlacedMarker interface {
	Remove()
}
