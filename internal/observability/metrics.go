package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nearby_hospitals"

// Metrics holds the Prometheus counters, histograms, and gauges for location
// resolution, geocoding, facility search, and the search relay.
type Metrics struct {
	// Resolution metrics.
	Resolutions        *prometheus.CounterVec // labels: trigger={primary,address,map}, outcome={resolved,failed,superseded}
	ResolvedProvenance *prometheus.CounterVec // labels: provenance
	StaleResults       prometheus.Counter

	// Positioning metrics.
	PositioningDuration prometheus.Histogram
	PositioningFailures *prometheus.CounterVec // labels: reason={permission_denied,timeout,unsupported}
	IPLookups           *prometheus.CounterVec // labels: outcome={success,error}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}

	// Facility search metrics.
	SearchRequests *prometheus.CounterVec // labels: outcome={success,empty,error}
	SearchResults  prometheus.Histogram

	// Relay metrics.
	RelayRequests *prometheus.CounterVec // labels: status
	APIKeyPresent prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Location resolution attempts by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		ResolvedProvenance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolved_provenance_total",
			Help:      "Committed locations by provenance.",
		}, []string{"provenance"}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Results discarded because a newer attempt superseded them.",
		}),
		PositioningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "positioning_duration_seconds",
			Help:      "Time until the device position race settled.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}),
		PositioningFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positioning_failures_total",
			Help:      "Device positioning failures by reason.",
		}, []string{"reason"}),
		IPLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ip_lookups_total",
			Help:      "IP-based fallback lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Google Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Facility searches by outcome.",
		}, []string{"outcome"}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Facilities kept per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		}),
		RelayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_requests_total",
			Help:      "Hospital relay requests by HTTP status.",
		}, []string{"status"}),
		APIKeyPresent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_key_present",
			Help:      "1 when the Google Maps API key is configured, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.Resolutions,
		m.ResolvedProvenance,
		m.StaleResults,
		m.PositioningDuration,
		m.PositioningFailures,
		m.IPLookups,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.SearchRequests,
		m.SearchResults,
		m.RelayRequests,
		m.APIKeyPresent,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Resolutions:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "resolutions_total"}, []string{"trigger", "outcome"}),
		ResolvedProvenance:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "resolved_provenance_total"}, []string{"provenance"}),
		StaleResults:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "stale_results_total"}),
		PositioningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "positioning_duration_seconds"}),
		PositioningFailures: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "positioning_failures_total"}, []string{"reason"}),
		IPLookups:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "ip_lookups_total"}, []string{"outcome"}),
		GeocodeRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_cache_total"}, []string{"method", "result"}),
		GeocodeAPIDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "geocode_api_duration_seconds"}, []string{"method"}),
		SearchRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "search_requests_total"}, []string{"outcome"}),
		SearchResults:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "search_results"}),
		RelayRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "relay_requests_total"}, []string{"status"}),
		APIKeyPresent:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "api_key_present"}),
	}
}
