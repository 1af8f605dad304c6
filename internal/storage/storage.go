package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/vrwatch/internal/config"
	"github.com/IshaanNene/vrwatch/internal/types"
)

// TitleStore persists the set of titles that have already been notified.
type TitleStore interface {
	// Load returns the persisted set. A store that has never been
	// written returns an empty set and no error.
	Load(ctx context.Context) (types.TitleSet, error)

	// Save replaces the persisted state with titles.
	Save(ctx context.Context, titles types.TitleSet) error

	// Close releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the title store selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (TitleStore, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileTitleStore(cfg.Path, logger), nil
	case "mongodb":
		return NewMongoTitleStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s (valid: file, mongodb)", cfg.Type)
	}
}
