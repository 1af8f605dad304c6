package engine

import (
	"log/slog"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/enrich"
	"github.com/IshaanNene/vrwatch/internal/fetcher"
	"github.com/IshaanNene/vrwatch/internal/listing"
	"github.com/IshaanNene/vrwatch/internal/notify"
	"github.com/IshaanNene/vrwatch/internal/observability"
	"github.com/IshaanNene/vrwatch/internal/pipeline"
	"github.com/IshaanNene/vrwatch/internal/storage"
	"github.com/IshaanNene/vrwatch/internal/translate"
)

// Build wires the standard components into an Engine: listing fetcher and
// extractor, the rating, detail tag, translate and trim stages, the
// Discord notifier, and the given store.
func Build(cfg *config.Config, f fetcher.Fetcher, store storage.TitleStore, metrics *observability.Metrics, logger *slog.Logger) (*Engine, error) {
	lf, err := listing.NewFetcher(cfg.Listing.BaseURL, f, logger)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(logger)
	if cfg.Enrich.RatingEnabled {
		p.Use(&enrich.RatingStage{
			Enricher: enrich.NewRatingEnricher(f, cfg.Enrich, logger),
			Metrics:  metrics,
		})
	}
	if cfg.Enrich.DetailTagsEnabled {
		p.Use(&enrich.TagStage{
			Enricher: enrich.NewTagEnricher(f, cfg.Enrich, logger),
			Metrics:  metrics,
		})
	}

	var tr *translate.Translator
	if cfg.Translate.Enabled {
		tr = translate.New(cfg.Translate, cfg.Fetcher.UserAgent, logger)
	}
	p.Use(&translate.Stage{Translator: tr, Metrics: metrics})
	p.Use(pipeline.TrimStage{})

	e := New(cfg, logger)
	if metrics != nil {
		e.SetMetrics(metrics)
	}
	e.SetListing(lf)
	e.SetExtractor(listing.NewExtractor(logger))
	e.SetPipeline(p)
	e.SetNotifier(notify.New(cfg.Notify, logger))
	e.SetStorage(store)
	return e, nil
}
