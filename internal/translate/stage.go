package translate

import (
	"context"

	"github.com/IshaanNene/vrwatch/internal/observability"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// Stage sets Record.DisplayTitle to the translated title, falling back to
// the original title on any failure. A nil Translator leaves the original.
type Stage struct {
	Translator *Translator
	Metrics    *observability.Metrics
}

func (s *Stage) Name() string { return "translate" }

func (s *Stage) Process(ctx context.Context, rec *types.Record) (*types.Record, error) {
	rec.DisplayTitle = rec.OriginalTitle
	if s.Translator == nil {
		return rec, nil
	}

	translated, err := s.Translator.Translate(ctx, rec.OriginalTitle)
	if err != nil {
		s.Translator.logger.Warn("translation failed, using original title",
			"title", rec.OriginalTitle, "error", err)
		if s.Metrics != nil {
			s.Metrics.TranslationFallbacks.Add(1)
		}
		return rec, nil
	}

	s.Translator.logger.Debug("translated title", "original", rec.OriginalTitle, "translated", translated)
	rec.DisplayTitle = translated
	return rec, nil
}
