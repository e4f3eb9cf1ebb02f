package view_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/resolver"
	"github.com/couchcryptid/nearby-hospitals/internal/view"
)

// --- fake map ---

type fakeSurface struct {
	center  domain.Coordinate
	zoom    int
	markers []view.Marker
	events  chan resolver.OverrideEvent
}

func (f *fakeSurface) SetView(center domain.Coordinate, zoom int) {
	f.center = center
	f.zoom = zoom
}

func (f *fakeSurface) SetMarkers(markers []view.Marker) { f.markers = markers }

func (f *fakeSurface) Overrides() <-chan resolver.OverrideEvent { return f.events }

var _ view.MapSurface = (*fakeSurface)(nil)

func location(lat, lng float64) *domain.ResolvedLocation {
	loc := domain.NewResolvedLocation(domain.Coordinate{Lat: lat, Lng: lng}, domain.ProvenanceGeolocationAPI, "")
	return &loc
}

func testFacilities() []domain.Facility {
	rating := 4.2
	return []domain.Facility{
		{ID: "a", Name: "General", Coordinate: domain.Coordinate{Lat: 40.01, Lng: -75.01}, Rating: &rating, Category: domain.CategoryHospital},
		{ID: "b", Name: "Dr. Lee", Coordinate: domain.Coordinate{Lat: 40.1, Lng: -75}, Category: domain.CategoryDoctor},
		{ID: "c", Name: "Urgent Care", Coordinate: domain.Coordinate{Lat: 39.9, Lng: -75}, Category: domain.CategoryMedicalOther},
	}
}

// --- list ---

func TestPresenter_Items(t *testing.T) {
	p := view.NewPresenter()
	p.SetResults(location(40, -75), testFacilities())

	items := p.Items()
	require.Len(t, items, 3)

	assert.Equal(t, "a", items[0].Facility.ID)
	require.NotNil(t, items[0].DistanceKm)
	assert.InDelta(t, 1.4, *items[0].DistanceKm, 1e-9)
	assert.Equal(t, "1.4 km away", items[0].DistanceLabel())
	assert.Equal(t, "★ 4.2", items[0].RatingLabel())
	assert.Equal(t, view.BadgeHospital, items[0].Badge)
	assert.Equal(t, "https://www.google.com/maps/dir/?api=1&destination=40.01,-75.01", items[0].DirectionsURL)

	assert.Equal(t, view.BadgeDoctor, items[1].Badge)
	assert.Equal(t, "Rating: N/A", items[1].RatingLabel())
	assert.Equal(t, view.BadgeMedical, items[2].Badge)
}

func TestPresenter_Items_NoLocation(t *testing.T) {
	p := view.NewPresenter()
	p.SetResults(nil, testFacilities())

	for _, item := range p.Items() {
		assert.Nil(t, item.DistanceKm)
		assert.Equal(t, "N/A", item.DistanceLabel())
	}
}

func TestPresenter_SetLocation_RecomputesDistance(t *testing.T) {
	p := view.NewPresenter()
	p.SetResults(location(40, -75), testFacilities())

	p.SetLocation(location(40.01, -75.01))
	items := p.Items()
	require.NotNil(t, items[0].DistanceKm)
	assert.InDelta(t, 0.0, *items[0].DistanceKm, 1e-9)
}

// --- selection ---

func TestPresenter_Select(t *testing.T) {
	p := view.NewPresenter()
	p.SetResults(location(40, -75), testFacilities())

	require.NoError(t, p.Select("b"))
	f, ok := p.Selection()
	require.True(t, ok)
	assert.Equal(t, "Dr. Lee", f.Name)

	items := p.Items()
	assert.False(t, items[0].Selected)
	assert.True(t, items[1].Selected)

	err := p.Select("zzz")
	assert.ErrorIs(t, err, view.ErrUnknownFacility)
	_, ok = p.Selection()
	assert.True(t, ok, "a failed select keeps the previous selection")

	p.ClearSelection()
	_, ok = p.Selection()
	assert.False(t, ok)
}

func TestPresenter_SelectionClearedWhenAbsent(t *testing.T) {
	p := view.NewPresenter()
	p.SetResults(location(40, -75), testFacilities())
	require.NoError(t, p.Select("a"))

	p.SetResults(location(40, -75), testFacilities()[1:])
	_, ok := p.Selection()
	assert.False(t, ok)
}

func TestPresenter_SelectionKeptWhenPresent(t *testing.T) {
	p := view.NewPresenter()
	p.SetResults(location(40, -75), testFacilities())
	require.NoError(t, p.Select("c"))

	p.SetResults(location(41, -75), testFacilities())
	f, ok := p.Selection()
	require.True(t, ok)
	assert.Equal(t, "c", f.ID)
}

// --- map ---

func TestPresenter_Render_DefaultCenter(t *testing.T) {
	m := &fakeSurface{}
	view.NewPresenter().Render(m)

	assert.Equal(t, view.DefaultCenter, m.center)
	assert.Equal(t, 13, m.zoom)
	assert.Empty(t, m.markers)
}

func TestPresenter_Render(t *testing.T) {
	p := view.NewPresenter()
	p.SetResults(location(40, -75), testFacilities()[:2])
	m := &fakeSurface{}

	p.Render(m)
	assert.Equal(t, domain.Coordinate{Lat: 40, Lng: -75}, m.center)

	want := []view.Marker{
		{ID: "user", Kind: view.MarkerUser, Coordinate: domain.Coordinate{Lat: 40, Lng: -75}, Title: "Your Location"},
		{ID: "a", Kind: view.MarkerFacility, Coordinate: domain.Coordinate{Lat: 40.01, Lng: -75.01}, Title: "General"},
		{ID: "b", Kind: view.MarkerFacility, Coordinate: domain.Coordinate{Lat: 40.1, Lng: -75}, Title: "Dr. Lee"},
	}
	if diff := cmp.Diff(want, m.markers); diff != "" {
		t.Errorf("markers mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, p.Select("b"))
	p.Render(m)
	assert.Equal(t, domain.Coordinate{Lat: 40.1, Lng: -75}, m.center, "pans to the selection")
	assert.True(t, m.markers[2].Selected)
}

// --- resolver integration ---

func TestPresenter_Apply(t *testing.T) {
	p := view.NewPresenter()
	p.Apply(resolver.State{
		Phase:      resolver.PhaseResolved,
		Current:    location(40, -75),
		Facilities: testFacilities(),
	})

	assert.Len(t, p.Items(), 3)
	msg, ok := p.AccuracyNotice()
	require.True(t, ok)
	assert.Equal(t, domain.AccuracyMessage(domain.ProvenanceGeolocationAPI), msg)
}

func TestPresenter_AccuracyNotice_NoLocation(t *testing.T) {
	_, ok := view.NewPresenter().AccuracyNotice()
	assert.False(t, ok)
}
