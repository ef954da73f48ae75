package enrich

import (
	"context"
	"strings"
	"sync"
)

// Coordinates is one geocoding result.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a venue/city/province triple to coordinates.
// A nil result with nil error means "could not resolve".
type Geocoder interface {
	Geocode(ctx context.Context, venue, city, province string) (*Coordinates, error)
}

// NoopGeocoder never resolves.
type NoopGeocoder struct{}

func (NoopGeocoder) Geocode(context.Context, string, string, string) (*Coordinates, error) {
	return nil, nil
}

// CachedGeocoder memoizes lookups by (venue, city, province). Misses are
// cached too, so a dead address is asked only once per process.
type CachedGeocoder struct {
	inner Geocoder
	mu    sync.Mutex
	cache map[string]*Coordinates
}

func NewCachedGeocoder(inner Geocoder) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, cache: make(map[string]*Coordinates)}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, venue, city, province string) (*Coordinates, error) {
	key := strings.ToLower(venue + "|" + city + "|" + province)

	g.mu.Lock()
	cached, ok := g.cache[key]
	g.mu.Unlock()
	if ok {
		return cached, nil
	}

	coords, err := g.inner.Geocode(ctx, venue, city, province)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.cache[key] = coords
	g.mu.Unlock()
	return coords, nil
}
