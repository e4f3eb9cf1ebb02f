// Package view turns resolver output into what a UI shows: an ordered
// facility list with distances and a map description. It holds the
// selection; everything else is derived.
package view

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/resolver"
)

// DefaultZoom is the map zoom used whenever the view is recentred.
const DefaultZoom = 13

// DefaultCenter is shown before any location is known (New York City).
var DefaultCenter = domain.Coordinate{Lat: 40.7128, Lng: -74.0060}

// EmptyMessage is the list placeholder for a search with no results.
const EmptyMessage = "No hospitals found nearby."

// ErrUnknownFacility is returned when selecting an ID not in the current results.
var ErrUnknownFacility = errors.New("unknown facility")

const directionsURL = "https://www.google.com/maps/dir/?api=1&destination=%s,%s"

// Badge is the short label shown beside a facility.
type Badge string

const (
	BadgeHospital Badge = "Hospital"
	BadgeDoctor   Badge = "Doctor"
	BadgeMedical  Badge = "Medical"
)

// ListItem is one row of the facility list.
type ListItem struct {
	Facility      domain.Facility
	DistanceKm    *float64 // nil when the user location is unknown
	Selected      bool
	Badge         Badge
	DirectionsURL string
}

// DistanceLabel renders the distance, or "N/A".
func (i ListItem) DistanceLabel() string {
	if i.DistanceKm == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*i.DistanceKm, 'f', 1, 64) + " km away"
}

// RatingLabel renders the rating, or "Rating: N/A".
func (i ListItem) RatingLabel() string {
	if i.Facility.Rating == nil {
		return "Rating: N/A"
	}
	return "★ " + strconv.FormatFloat(*i.Facility.Rating, 'f', -1, 64)
}

// Presenter derives list and map state from the current location and the
// latest facility results. It is safe for concurrent use.
type Presenter struct {
	mu         sync.Mutex
	current    *domain.ResolvedLocation
	facilities []domain.Facility
	selected   string
}

// NewPresenter creates an empty presenter.
func NewPresenter() *Presenter {
	return &Presenter{}
}

// Apply syncs the presenter with a resolver snapshot. Register it with
// Resolver.OnChange.
func (p *Presenter) Apply(s resolver.State) {
	p.SetResults(s.Current, s.Facilities)
}

// SetResults replaces the location and facility set. A selection whose ID is
// not in the new set is cleared.
func (p *Presenter) SetResults(current *domain.ResolvedLocation, facilities []domain.Facility) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.facilities = slices.Clone(facilities)
	if p.selected != "" && p.indexLocked(p.selected) < 0 {
		p.selected = ""
	}
}

// SetLocation updates the user location only; distances are recomputed on
// the next Items call without a new search.
func (p *Presenter) SetLocation(current *domain.ResolvedLocation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
}

// Select marks the facility with the given ID as selected.
func (p *Presenter) Select(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownFacility, id)
	}
	p.selected = id
	return nil
}

// ClearSelection drops the selection.
func (p *Presenter) ClearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = ""
}

// Selection returns the selected facility, if any.
func (p *Presenter) Selection() (domain.Facility, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i := p.indexLocked(p.selected); i >= 0 {
		return p.facilities[i], true
	}
	return domain.Facility{}, false
}

// AccuracyNotice returns the accuracy message for the current location.
func (p *Presenter) AccuracyNotice() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return "", false
	}
	return domain.AccuracyMessage(p.current.Provenance), true
}

// Items returns the facility list in server order.
func (p *Presenter) Items() []ListItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	items := make([]ListItem, 0, len(p.facilities))
	for _, f := range p.facilities {
		item := ListItem{
			Facility:      f,
			Selected:      f.ID == p.selected,
			Badge:         badgeFor(f.Category),
			DirectionsURL: DirectionsURL(f.Coordinate),
		}
		if p.current != nil {
			d := domain.DisplayDistanceKm(p.current.Coordinate, f.Coordinate)
			item.DistanceKm = &d
		}
		items = append(items, item)
	}
	return items
}

// DirectionsURL links to Google Maps driving directions to c.
func DirectionsURL(c domain.Coordinate) string {
	return fmt.Sprintf(directionsURL,
		strconv.FormatFloat(c.Lat, 'f', -1, 64),
		strconv.FormatFloat(c.Lng, 'f', -1, 64),
	)
}

func (p *Presenter) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(p.facilities, func(f domain.Facility) bool { return f.ID == id })
}

func badgeFor(c domain.Category) Badge {
	switch c {
	case domain.CategoryHospital:
		return BadgeHospital
	case domain.CategoryDoctor:
		return BadgeDoctor
	default:
		return BadgeMedical
	}
}
