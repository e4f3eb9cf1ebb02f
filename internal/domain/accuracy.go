package domain

// TierFor maps a provenance onto its accuracy tier. Unknown provenances are
// treated as low accuracy.
func TierFor(p Provenance) AccuracyTier {
	switch p {
	case ProvenanceGeocodeAPI, ProvenanceManualInput, ProvenanceMapOverride:
		return TierHigh
	case ProvenanceGeolocationAPI:
		return TierMedium
	default:
		return TierLow
	}
}

// AccuracyMessage returns the user-facing explanation for a provenance.
func AccuracyMessage(p Provenance) string {
	switch p {
	case ProvenanceGeocodeAPI:
		return "Location verified by address lookup."
	case ProvenanceGeolocationAPI:
		return "Location from your device; accuracy may vary."
	case ProvenanceIPBased:
		return "Approximate location based on your network. Set your address for better results."
	case ProvenanceManualInput:
		return "Location set from the address you entered."
	case ProvenanceMapOverride:
		return "Location set on the map."
	default:
		return "Location accuracy unknown."
	}
}

// NeedsRefinement reports whether a location at this tier is worth
// correcting, e.g. by prompting for an address.
func NeedsRefinement(t AccuracyTier) bool {
	return t != TierHigh
}
