package config

import (
	"context"
	"log/slog"
	"testing"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_CategoryDefaults(t *testing.T) {
	cfg, err := Load(ModeCategory)
	require.NoError(t, err)

	assert.Equal(t, ModeCategory, cfg.Mode)
	assert.Equal(t, "everything.csv", cfg.InputPath)
	assert.Equal(t, "combined_category_map.html", cfg.OutputPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 4.0, cfg.RatingMin)
	assert.Equal(t, 5.0, cfg.RatingMax)
	require.NotNil(t, cfg.MapCenter)
	assert.Equal(t, LatLng{Lat: 52.370216, Lng: 4.895168}, *cfg.MapCenter)
	assert.Equal(t, 12, cfg.MapZoom)
	assert.Equal(t, 4, cfg.ClusterCount)
	assert.Equal(t, 10, cfg.ClusterInit)
	assert.False(t, cfg.ClusterSeedSet)
	assert.False(t, cfg.OpenBrowser)
	assert.Zero(t, cfg.PreviewRows)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "poi-entities", cfg.KafkaSinkTopic)
}

func TestLoad_ClusterDefaults(t *testing.T) {
	cfg, err := Load(ModeCluster)
	require.NoError(t, err)

	assert.Equal(t, "Restaurants - Sheet1.csv", cfg.InputPath)
	assert.Equal(t, "high_rated_restaurants_map.html", cfg.OutputPath)
	assert.Nil(t, cfg.MapCenter)
	assert.Equal(t, 13, cfg.MapZoom)
	assert.True(t, cfg.OpenBrowser)
	assert.Equal(t, 5, cfg.PreviewRows)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_PATH", "reviews.csv")
	t.Setenv("OUTPUT_PATH", "out/map.html")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("RATING_MIN", "3.5")
	t.Setenv("RATING_MAX", "4.5")
	t.Setenv("MAP_CENTER", "40.7128, -74.0060")
	t.Setenv("MAP_ZOOM", "10")
	t.Setenv("CLUSTER_COUNT", "6")
	t.Setenv("CLUSTER_INIT", "3")
	t.Setenv("CLUSTER_SEED", "42")
	t.Setenv("OPEN_BROWSER", "false")
	t.Setenv("PREVIEW_ROWS", "10")
	t.Setenv("METRICS_TEXTFILE", "/tmp/poi.prom")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")

	cfg, err := Load(ModeCluster)
	require.NoError(t, err)

	assert.Equal(t, "reviews.csv", cfg.InputPath)
	assert.Equal(t, "out/map.html", cfg.OutputPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3.5, cfg.RatingMin)
	assert.Equal(t, 4.5, cfg.RatingMax)
	require.NotNil(t, cfg.MapCenter)
	assert.Equal(t, LatLng{Lat: 40.7128, Lng: -74.0060}, *cfg.MapCenter)
	assert.Equal(t, 10, cfg.MapZoom)
	assert.Equal(t, 6, cfg.ClusterCount)
	assert.Equal(t, 3, cfg.ClusterInit)
	assert.True(t, cfg.ClusterSeedSet)
	assert.Equal(t, uint64(42), cfg.ClusterSeed)
	assert.False(t, cfg.OpenBrowser)
	assert.Equal(t, 10, cfg.PreviewRows)
	assert.Equal(t, "/tmp/poi.prom", cfg.MetricsTextfile)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
}

func TestLoad_CategoryCenterNeverUnset(t *testing.T) {
	t.Setenv("MAP_CENTER", "")

	cfg, err := Load(ModeCategory)
	require.NoError(t, err)
	require.NotNil(t, cfg.MapCenter)
	assert.Equal(t, LatLng{Lat: 52.370216, Lng: 4.895168}, *cfg.MapCenter)
}

func TestLoad_LoggerSettings(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "json")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg, err := Load(ModeCluster)
	require.NoError(t, err)

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()
	assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.IsType(t, &slog.JSONHandler{}, logger.Handler())
	assert.Same(t, logger, slog.Default())
}

func TestLoad_UnknownMode(t *testing.T) {
	_, err := Load(Mode("heatmap"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heatmap")
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
		want  string
	}{
		{"RATING_MIN", "high", "RATING_MIN"},
		{"RATING_MAX", "x", "RATING_MAX"},
		{"RATING_MIN", "6", "RATING_MIN must not exceed RATING_MAX"},
		{"MAP_CENTER", "52.37", "MAP_CENTER"},
		{"MAP_CENTER", "95,4.89", "MAP_CENTER"},
		{"MAP_ZOOM", "0", "MAP_ZOOM"},
		{"CLUSTER_COUNT", "-1", "CLUSTER_COUNT"},
		{"CLUSTER_INIT", "many", "CLUSTER_INIT"},
		{"CLUSTER_SEED", "-5", "CLUSTER_SEED"},
		{"PREVIEW_ROWS", "-1", "PREVIEW_ROWS"},
		{"MAPBOX_TIMEOUT", "bad", "MAPBOX_TIMEOUT"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load(ModeCategory)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load(ModeCluster)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load(ModeCluster)
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_InvalidMapboxCacheSizeFallsBack(t *testing.T) {
	t.Setenv("MAPBOX_CACHE_SIZE", "zero")
	cfg, err := Load(ModeCluster)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
}
