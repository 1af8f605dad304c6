package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/IshaanNene/vrwatch/internal/types"
)

// Stage processes a record and returns the (possibly modified) record.
// Return nil to drop the record from the pipeline.
type Stage interface {
	// Name returns the stage's identifier.
	Name() string

	// Process transforms a record. Return nil to drop the record.
	Process(ctx context.Context, rec *types.Record) (*types.Record, error)
}

// Pipeline chains stages together.
type Pipeline struct {
	stages []Stage
	logger *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a stage to the end of the chain.
func (p *Pipeline) Use(s Stage) {
	p.stages = append(p.stages, s)
	p.logger.Debug("stage added", "name", s.Name(), "position", len(p.stages))
}

// Process runs the record through all stages in order.
func (p *Pipeline) Process(ctx context.Context, rec *types.Record) (*types.Record, error) {
	current := rec

	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, &types.PipelineError{Stage: s.Name(), Record: current, Err: err}
		}

		result, err := s.Process(ctx, current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage:  s.Name(),
				Record: current,
				Err:    err,
			}
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", s.Name(), "title", rec.OriginalTitle)
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// Len returns the number of stages in the chain.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Names returns the stage names in order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// --- Built-in Stages ---

// TrimStage collapses whitespace in a translated display title and trims
// the image URL. An untranslated display title stays equal to the original.
type TrimStage struct{}

func (TrimStage) Name() string { return "trim" }

func (TrimStage) Process(_ context.Context, rec *types.Record) (*types.Record, error) {
	if rec.DisplayTitle != rec.OriginalTitle {
		rec.DisplayTitle = strings.Join(strings.Fields(rec.DisplayTitle), " ")
	}
	rec.ImageURL = strings.TrimSpace(rec.ImageURL)
	return rec, nil
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, rec *types.Record) (*types.Record, error)
}

func (s StageFunc) Name() string { return s.StageName }

func (s StageFunc) Process(ctx context.Context, rec *types.Record) (*types.Record, error) {
	return s.Fn(ctx, rec)
}
