package enrich

import (
	"context"

	"github.com/IshaanNene/vrwatch/internal/observability"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// RatingStage sets Record.Rating from the rating site. A missing rating
// never fails the record.
type RatingStage struct {
	Enricher *RatingEnricher
	Metrics  *observability.Metrics
}

func (s *RatingStage) Name() string { return "rating" }

func (s *RatingStage) Process(ctx context.Context, rec *types.Record) (*types.Record, error) {
	if !rec.HasIdentifier() {
		s.Enricher.logger.Info("no product identifier, skipping rating check", "title", rec.OriginalTitle)
	}

	res := s.Enricher.Lookup(ctx, rec.Identifier)
	if res.OK() {
		rec.Rating = res.Value
		if s.Metrics != nil {
			s.Metrics.RatingsFound.Add(1)
		}
		return rec, nil
	}
	if s.Metrics != nil && res.Reason != types.ReasonSkipped {
		s.Metrics.RatingsMissed.Add(1)
	}
	return rec, nil
}

// TagStage unions the detail page tags into Record.Tags.
type TagStage struct {
	Enricher *TagEnricher
	Metrics  *observability.Metrics
}

func (s *TagStage) Name() string { return "detail_tags" }

func (s *TagStage) Process(ctx context.Context, rec *types.Record) (*types.Record, error) {
	res := s.Enricher.Lookup(ctx, rec.DetailURL)
	if !res.OK() {
		if s.Metrics != nil {
			s.Metrics.DetailFetchFailures.Add(1)
		}
		return rec, nil
	}
	if rec.Tags == nil {
		rec.Tags = types.NewTagSet()
	}
	rec.Tags.Union(types.NewTagSet(res.Value...))
	return rec, nil
}
