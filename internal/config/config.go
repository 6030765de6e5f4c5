package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Mode selects which map a binary renders and therefore its defaults.
type Mode string

const (
	// ModeCategory renders one togglable layer per category.
	ModeCategory Mode = "category"
	// ModeCluster renders k-means colored markers in a single cluster group.
	ModeCluster Mode = "cluster"
)

// LatLng is a map coordinate.
type LatLng struct {
	Lat float64
	Lng float64
}

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	Mode       Mode
	InputPath  string
	OutputPath string
	LogLevel   string
	LogFormat  string

	RatingMin float64
	RatingMax float64

	// MapCenter is nil when the center is computed from the retained entities.
	MapCenter *LatLng
	MapZoom   int

	ClusterCount int
	ClusterInit  int
	ClusterSeed  uint64
	// ClusterSeedSet is false when CLUSTER_SEED is unset and a seed must be derived.
	ClusterSeedSet bool

	OpenBrowser     bool
	PreviewRows     int
	MetricsTextfile string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Kafka sink configuration. Disabled when KafkaBrokers is empty.
	KafkaBrokers   []string
	KafkaSinkTopic string
}

type modeDefaults struct {
	input       string
	output      string
	center      string
	zoom        string
	openBrowser string
	previewRows string
}

var defaults = map[Mode]modeDefaults{
	ModeCategory: {
		input:       "everything.csv",
		output:      "combined_category_map.html",
		center:      "52.370216,4.895168",
		zoom:        "12",
		openBrowser: "false",
		previewRows: "0",
	},
	ModeCluster: {
		input:       "Restaurants - Sheet1.csv",
		output:      "high_rated_restaurants_map.html",
		zoom:        "13",
		openBrowser: "true",
		previewRows: "5",
	},
}

// Load reads configuration from environment variables, applying the defaults
// of the given mode where unset.
func Load(mode Mode) (*Config, error) {
	d, ok := defaults[mode]
	if !ok {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	cfg := &Config{
		Mode:            mode,
		InputPath:       sharedcfg.EnvOrDefault("INPUT_PATH", d.input),
		OutputPath:      sharedcfg.EnvOrDefault("OUTPUT_PATH", d.output),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "poi-entities"),
	}

	var err error
	if cfg.RatingMin, err = parseFloat("RATING_MIN", "4"); err != nil {
		return nil, err
	}
	if cfg.RatingMax, err = parseFloat("RATING_MAX", "5"); err != nil {
		return nil, err
	}
	if cfg.RatingMin > cfg.RatingMax {
		return nil, errors.New("RATING_MIN must not exceed RATING_MAX")
	}

	if center := sharedcfg.EnvOrDefault("MAP_CENTER", d.center); center != "" {
		c, err := parseLatLng(center)
		if err != nil {
			return nil, fmt.Errorf("invalid MAP_CENTER: %w", err)
		}
		cfg.MapCenter = &c
	}

	if cfg.MapZoom, err = parsePositiveInt("MAP_ZOOM", d.zoom); err != nil {
		return nil, err
	}
	if cfg.ClusterCount, err = parsePositiveInt("CLUSTER_COUNT", "4"); err != nil {
		return nil, err
	}
	if cfg.ClusterInit, err = parsePositiveInt("CLUSTER_INIT", "10"); err != nil {
		return nil, err
	}
	if s := os.Getenv("CLUSTER_SEED"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errors.New("invalid CLUSTER_SEED")
		}
		cfg.ClusterSeed = seed
		cfg.ClusterSeedSet = true
	}

	cfg.OpenBrowser = sharedcfg.EnvOrDefault("OPEN_BROWSER", d.openBrowser) == "true"
	previewRows, err := strconv.Atoi(sharedcfg.EnvOrDefault("PREVIEW_ROWS", d.previewRows))
	if err != nil || previewRows < 0 {
		return nil, errors.New("invalid PREVIEW_ROWS")
	}
	cfg.PreviewRows = previewRows

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}
	cfg.MapboxTimeout = mapboxTimeout
	cfg.MapboxCacheSize = parseMapboxCacheSize()
	cfg.MapboxToken = os.Getenv("MAPBOX_TOKEN")
	cfg.MapboxEnabled = cfg.MapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		cfg.MapboxEnabled = v == "true"
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("OUTPUT_PATH is required")
	}

	return cfg, nil
}

// KafkaEnabled reports whether retained entities are published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(sharedcfg.EnvOrDefault(key, def)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parsePositiveInt(key, def string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(sharedcfg.EnvOrDefault(key, def)))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

// parseLatLng parses "lat,lng".
func parseLatLng(s string) (LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return LatLng{}, fmt.Errorf("want \"lat,lng\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return LatLng{}, fmt.Errorf("longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return LatLng{}, fmt.Errorf("coordinate out of range: %g,%g", lat, lng)
	}
	return LatLng{Lat: lat, Lng: lng}, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
