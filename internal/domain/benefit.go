package domain

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are set. The locations endpoint uses
// zero values for benefits it could not geocode.
func (l Location) Valid() bool {
	return l.Lat != 0 && l.Lng != 0
}

// RecommendationItem is a single ranked benefit suggestion. Location may be
// nil when the chat response did not carry coordinates.
type RecommendationItem struct {
	BenefitID string    `json:"benefitId"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Summary   string    `json:"summary"`
	Score     float64   `json:"score"`
	Location  *Location `json:"location,omitempty"`
}

// Located reports whether the item carries a usable coordinate.
func (r RecommendationItem) Located() bool {
	return r.Location != nil
}

// Marker is an entry of the backend's geocoded benefit list.
type Marker struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// Location returns the marker position.
func (m Marker) Location() Location {
	return Location{Lat: m.Lat, Lng: m.Lng}
}

// BenefitDetail is the long-form description of a benefit.
type BenefitDetail struct {
	Institution string `json:"institution"`
	Support     string `json:"support"`
	Conditions  string `json:"conditions"`
	Documents   string `json:"documents"`
	URL         string `json:"url"`
}
