package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/poi-rating-map/internal/domain"
	"github.com/couchcryptid/poi-rating-map/internal/observability"
)

// Extractor reads all review records from the source.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.Record, error)
}

// Clusterer labels entities with a cluster index. domain.KMeans implements it.
type Clusterer interface {
	Assign(entities []domain.Entity) ([]domain.Entity, domain.Clustering, error)
}

// Loader writes the retained entities to a destination.
type Loader interface {
	Name() string
	LoadBatch(ctx context.Context, entities []domain.Entity) error
}

// Options selects the aggregation key, the rating band and the optional stages.
type Options struct {
	GroupBy domain.GroupBy
	Ratings domain.RatingRange
	// Clusterer is nil when entities are not clustered.
	Clusterer Clusterer
	// Geocoder is nil when retained entities are not enriched with addresses.
	Geocoder domain.Geocoder
}

// Result summarizes a completed run.
type Result struct {
	Records    int
	Aggregated []domain.Entity
	Retained   []domain.Entity
	Clustering *domain.Clustering
}

// Pipeline orchestrates the load-aggregate-filter-render pass.
type Pipeline struct {
	extractor Extractor
	loaders   []Loader
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline with the given stages and observability. Loaders run
// in the order given.
func New(e Extractor, opts Options, logger *slog.Logger, metrics *observability.Metrics, loaders ...Loader) *Pipeline {
	return &Pipeline{
		extractor: e,
		loaders:   loaders,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes a single pass. Any stage failure aborts the run; loaders after
// a failed loader are not called.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := domain.Now()
	defer func() {
		p.metrics.RunDuration.Observe(domain.Since(start).Seconds())
	}()

	var res Result

	var records []domain.Record
	err := p.stage("extract", func() error {
		var err error
		records, err = p.extractor.Extract(ctx)
		return err
	})
	if err != nil {
		return res, err
	}
	res.Records = len(records)
	p.metrics.RecordsRead.Add(float64(len(records)))
	p.logger.Info("records loaded", "records", len(records))

	aggStart := domain.Now()
	res.Aggregated = domain.Aggregate(records, p.opts.GroupBy)
	p.observeStage("aggregate", aggStart)
	p.metrics.EntitiesAggregated.Add(float64(len(res.Aggregated)))
	p.logger.Info("records aggregated", "group_by", p.opts.GroupBy, "entities", len(res.Aggregated))

	if p.opts.Clusterer != nil {
		err := p.stage("cluster", func() error {
			clustered, clustering, err := p.opts.Clusterer.Assign(res.Aggregated)
			if err != nil {
				return err
			}
			res.Aggregated = clustered
			res.Clustering = &clustering
			return nil
		})
		if err != nil {
			return res, err
		}
		p.metrics.ClusterInertia.Set(res.Clustering.Inertia)
		p.logger.Info("entities clustered", "clusters", len(res.Clustering.Centroids), "inertia", res.Clustering.Inertia)
	}

	filterStart := domain.Now()
	res.Retained = domain.FilterByRating(res.Aggregated, p.opts.Ratings)
	p.observeStage("filter", filterStart)
	p.metrics.EntitiesRetained.Add(float64(len(res.Retained)))
	p.metrics.EntitiesRejected.Add(float64(len(res.Aggregated) - len(res.Retained)))
	p.logger.Info("entities filtered", "range", p.opts.Ratings, "retained", len(res.Retained), "rejected", len(res.Aggregated)-len(res.Retained))

	if p.opts.Geocoder != nil {
		err := p.stage("enrich", func() error {
			enriched := make([]domain.Entity, len(res.Retained))
			for i, e := range res.Retained {
				if err := ctx.Err(); err != nil {
					return err
				}
				enriched[i] = domain.EnrichWithGeocoding(ctx, e, p.opts.Geocoder, p.logger)
			}
			res.Retained = enriched
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	for _, l := range p.loaders {
		err := p.stage("load", func() error {
			return l.LoadBatch(ctx, res.Retained)
		})
		if err != nil {
			p.metrics.LoadErrors.WithLabelValues(l.Name()).Inc()
			return res, fmt.Errorf("%s loader: %w", l.Name(), err)
		}
		p.logger.Info("entities loaded", "loader", l.Name(), "entities", len(res.Retained))
	}

	return res, nil
}

// stage times fn under the given stage label and wraps its error with the stage name.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := domain.Now()
	err := fn()
	p.observeStage(name, start)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (p *Pipeline) observeStage(name string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(name).Observe(domain.Since(start).Seconds())
}
