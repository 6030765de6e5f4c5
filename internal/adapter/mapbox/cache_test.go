package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/poi-rating-map/internal/domain"
	"github.com/couchcryptid/poi-rating-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func newCached(t *testing.T, inner domain.Geocoder, size int) (*CachedGeocoder, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics()
	cached, err := NewCachedGeocoder(inner, size, metrics)
	require.NoError(t, err)
	return cached, metrics
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "Dam 1, Amsterdam"}}
	cached, metrics := newCached(t, inner, 10)

	r1, err := cached.ReverseGeocode(context.Background(), 52.3731, 4.8926)
	require.NoError(t, err)
	r2, err := cached.ReverseGeocode(context.Background(), 52.3731, 4.8926)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "Somewhere"}}
	cached, _ := newCached(t, inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), 52.1, 4.1)
	_, _ = cached.ReverseGeocode(context.Background(), 52.2, 4.2)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached, _ := newCached(t, inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), 52.1, 4.1)
	_, _ = cached.ReverseGeocode(context.Background(), 52.1, 4.1)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ErrorPassesThrough(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("rate limited")}
	cached, _ := newCached(t, inner, 10)

	_, err := cached.ReverseGeocode(context.Background(), 52.1, 4.1)
	require.Error(t, err)
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "x"}}
	cached, _ := newCached(t, inner, 2)
	ctx := context.Background()

	_, _ = cached.ReverseGeocode(ctx, 1, 1)
	_, _ = cached.ReverseGeocode(ctx, 2, 2)
	_, _ = cached.ReverseGeocode(ctx, 3, 3) // evicts (1,1)
	_, _ = cached.ReverseGeocode(ctx, 1, 1)

	assert.Equal(t, 4, inner.calls)
}

func TestNewCachedGeocoder_InvalidSize(t *testing.T) {
	_, err := NewCachedGeocoder(&countingGeocoder{}, 0, observability.NewMetrics())
	require.Error(t, err)
}
