package view

import (
	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/resolver"
)

// MarkerKind distinguishes the user's own marker from facility markers.
type MarkerKind string

const (
	MarkerUser     MarkerKind = "user"
	MarkerFacility MarkerKind = "facility"
)

const userMarkerID = "user"

// Marker is one pin on the map.
type Marker struct {
	ID         string
	Kind       MarkerKind
	Coordinate domain.Coordinate
	Title      string
	Selected   bool
}

// MapSurface is an interactive map. Overrides is the single subscription
// channel for click and drag gestures; it is consumed by Resolver.Watch.
type MapSurface interface {
	SetView(center domain.Coordinate, zoom int)
	SetMarkers(markers []Marker)
	Overrides() <-chan resolver.OverrideEvent
}

// Render draws the current state onto m: the view is centred on the user
// (or DefaultCenter), panned to the selected facility when there is one.
func (p *Presenter) Render(m MapSurface) {
	p.mu.Lock()
	center := DefaultCenter
	markers := make([]Marker, 0, len(p.facilities)+1)
	if p.current != nil {
		center = p.current.Coordinate
		markers = append(markers, Marker{
			ID:         userMarkerID,
			Kind:       MarkerUser,
			Coordinate: p.current.Coordinate,
			Title:      "Your Location",
		})
	}
	for _, f := range p.facilities {
		selected := f.ID == p.selected
		if selected {
			center = f.Coordinate
		}
		markers = append(markers, Marker{
			ID:         f.ID,
			Kind:       MarkerFacility,
			Coordinate: f.Coordinate,
			Title:      f.Name,
			Selected:   selected,
		})
	}
	p.mu.Unlock()

	m.SetMarkers(markers)
	m.SetView(center, DefaultZoom)
}
