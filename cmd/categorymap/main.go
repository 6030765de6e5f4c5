// Command categorymap renders the highly rated entities of a reviews CSV as a
// map with one togglable layer per category.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/poi-rating-map/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/poi-rating-map/internal/adapter/kafka"
	"github.com/couchcryptid/poi-rating-map/internal/adapter/leaflet"
	"github.com/couchcryptid/poi-rating-map/internal/adapter/mapbox"
	"github.com/couchcryptid/poi-rating-map/internal/config"
	"github.com/couchcryptid/poi-rating-map/internal/domain"
	"github.com/couchcryptid/poi-rating-map/internal/observability"
	"github.com/couchcryptid/poi-rating-map/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load(config.ModeCategory)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("category map failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// Category mode always has a center; config.Load applies the Amsterdam default.
	center := cfg.MapCenter
	html := leaflet.NewFileWriter(cfg.OutputPath, "Combined category map", func(entities []domain.Entity) (leaflet.Map, error) {
		return leaflet.CategoryMap(entities, center.Lat, center.Lng, cfg.MapZoom), nil
	}, logger)
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
		csvfile.NewReader(cfg.InputPath, true, logger),
		pipeline.Options{
			GroupBy:  domain.GroupByIDAndCategory,
			Ratings:  domain.RatingRange{Min: cfg.RatingMin, Max: cfg.RatingMax},
			Geocoder: geocoder,
		},
		logger, metrics, loaders...,
	)

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}
	logger.Debug("run complete", "records", res.Records, "retained", len(res.Retained))
	fmt.Println("Combined map with category selection has been saved.")

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return err
		}
	}
	return nil
}
