// Package domain models the location and facility data behind the nearby
// hospitals finder.
//
// # Coordinates
//
// All coordinates are WGS-84 latitude/longitude pairs in decimal degrees:
//
//	Lat ∈ [-90, 90], Lng ∈ [-180, 180], both finite.
//
// Coordinates coming from devices, geocoders, IP lookups, or map clicks are
// checked with [Coordinate.Validate] before they can become the current
// location.
//
// # Provenance and Accuracy
//
// Every resolved location records which method produced it. The accuracy tier
// is a pure function of that provenance (see [TierFor]):
//
//	geocode-api      high    device fix corrected by reverse geocoding
//	manual-input     high    address typed by the user
//	map-override     high    point clicked or dragged on the map
//	geolocation-api  medium  raw device fix, refinement unavailable
//	ip-based         low     coarse network-origin lookup
//
// # Refinement
//
// Reverse geocoding is best-effort: [RefineCoordinate] never fails and falls
// back to the raw device fix. Forward geocoding of a typed address is not:
// [ResolveAddress] fails with [ErrAddressNotFound] so the user can correct
// the input.
//
// # Distance
//
// Display distances use the haversine great-circle formula on a sphere of
// radius 6371 km, rounded to one decimal place. See [Haversine] and
// [DisplayDistanceKm].
package domain
