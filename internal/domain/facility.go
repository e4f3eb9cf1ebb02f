package domain

import (
	"context"
	"slices"
)

// MaxFacilities caps the number of facilities kept from one search.
const MaxFacilities = 10

// Category classifies a facility for display badges.
type Category string

const (
	CategoryHospital     Category = "hospital"
	CategoryDoctor       Category = "doctor"
	CategoryMedicalOther Category = "medical-other"
)

// Facility is a nearby medical place returned by the search service.
type Facility struct {
	ID         string     `json:"id"` // upstream place_id, stable within a session
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	Coordinate Coordinate `json:"coordinate"`
	Rating     *float64   `json:"rating,omitempty"`
	Category   Category   `json:"category"`
}

// CategoryFromTypes derives a category from upstream place types.
// "hospital" takes precedence over "doctor".
func CategoryFromTypes(types []string) Category {
	switch {
	case slices.Contains(types, "hospital"):
		return CategoryHospital
	case slices.Contains(types, "doctor"):
		return CategoryDoctor
	default:
		return CategoryMedicalOther
	}
}

// CapFacilities keeps at most MaxFacilities entries in their original order.
func CapFacilities(facilities []Facility) []Facility {
	if len(facilities) <= MaxFacilities {
		return facilities
	}
	return facilities[:MaxFacilities:MaxFacilities]
}

// FacilitySearcher retrieves ranked facilities near a coordinate.
type FacilitySearcher interface {
	// Search returns at most MaxFacilities results. An empty slice is a valid
	// outcome. Failures wrap ErrUpstream, ErrQuotaExceeded, or ErrMisconfiguredKey.
	Search(ctx context.Context, c Coordinate) ([]Facility, error)
}
