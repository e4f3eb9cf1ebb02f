package google

import (
	"context"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mmcloughlin/geohash"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
)

// reverseCellPrecision is the geohash length used for reverse keys.
// Nine characters is a cell of roughly 5m x 5m.
const reverseCellPrecision = 9

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Empty
// results are never cached so a later lookup can still succeed.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator holding at most maxEntries results.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, domain.GeocodingResult](max(maxEntries, 1))
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, address string) (domain.GeocodingResult, error) {
	return c.lookup("forward", forwardKey(address), func() (domain.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, address)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, coord domain.Coordinate) (domain.GeocodingResult, error) {
	return c.lookup("reverse", reverseKey(coord), func() (domain.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, coord)
	})
}

func (c *CachedGeocoder) lookup(direction, key string, fetch func() (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(direction, "hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues(direction, "miss").Inc()

	result, err := fetch()
	if err != nil || result.Empty() {
		return result, err
	}
	c.cache.Add(key, result)
	return result, nil
}

// forwardKey folds case, accents and whitespace so "Café  Street" and
// "cafe street" share an entry.
func forwardKey(address string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, address)
	if err != nil {
		folded = address
	}
	return "fwd:" + strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

func reverseKey(c domain.Coordinate) string {
	return "rev:" + geohash.EncodeWithPrecision(c.Lat, c.Lng, reverseCellPrecision)
}
