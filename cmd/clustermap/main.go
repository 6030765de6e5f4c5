// Command clustermap clusters the restaurants of a reviews CSV with k-means
// and renders the highly rated ones as cluster-colored markers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/poi-rating-map/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/poi-rating-map/internal/adapter/kafka"
	"github.com/couchcryptid/poi-rating-map/internal/adapter/leaflet"
	"github.com/couchcryptid/poi-rating-map/internal/adapter/mapbox"
	"github.com/couchcryptid/poi-rating-map/internal/config"
	"github.com/couchcryptid/poi-rating-map/internal/domain"
	"github.com/couchcryptid/poi-rating-map/internal/observability"
	"github.com/couchcryptid/poi-rating-map/internal/pipeline"
	"github.com/couchcryptid/poi-rating-map/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/pkg/browser"
)

func main() {
	cfg, err := config.Load(config.ModeCluster)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("cluster map failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seed := cfg.ClusterSeed
	if !cfg.ClusterSeedSet {
		seed = uint64(domain.Now().UnixNano())
		logger.Info("CLUSTER_SEED not set, derived from clock", "seed", seed)
	}
	km := domain.NewKMeans(cfg.ClusterCount, seed)
	km.NInit = cfg.ClusterInit

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			return err
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	build := func(entities []domain.Entity) (leaflet.Map, error) {
		return leaflet.ClusterMap(entities, cfg.MapZoom)
	}
	if c := cfg.MapCenter; c != nil {
		build = func(entities []domain.Entity) (leaflet.Map, error) {
			return leaflet.ClusterMapAt(entities, c.Lat, c.Lng, cfg.MapZoom), nil
		}
	}
	html := leaflet.NewFileWriter(cfg.OutputPath, "High rated restaurants", build, logger)
	loaders := []pipeline.Loader{html}

	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, string(cfg.Mode), logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(
		csvfile.NewReader(cfg.InputPath, false, logger),
		pipeline.Options{
			GroupBy:   domain.GroupByID,
			Ratings:   domain.RatingRange{Min: cfg.RatingMin, Max: cfg.RatingMax},
			Clusterer: km,
			Geocoder:  geocoder,
		},
		logger, metrics, loaders...,
	)

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Map saved as '%s'\n", html.Path())

	if cfg.OpenBrowser {
		openMap(html.Path(), logger)
	}

	if err := report.Preview(os.Stdout, res.Aggregated, cfg.PreviewRows); err != nil {
		return fmt.Errorf("print preview: %w", err)
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return err
		}
	}
	return nil
}

// openMap shows the page in the default browser. Failure only warns; the file
// has already been written.
func openMap(path string, logger *slog.Logger) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := browser.OpenFile(abs); err != nil {
		logger.Warn("could not open browser", "path", abs, "error", err)
	}
}
