package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/vrwatch/internal/types"
)

// MongoTitleStore keeps one document per title: {_id: title, first_seen}.
type MongoTitleStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoTitleStore connects to MongoDB and verifies the connection.
func NewMongoTitleStore(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoTitleStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoTitleStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_store"),
	}, nil
}

func (s *MongoTitleStore) Name() string { return "mongodb" }

type titleDoc struct {
	Title     string    `bson:"_id"`
	FirstSeen time.Time `bson:"first_seen"`
}

func (s *MongoTitleStore) Load(ctx context.Context) (types.TitleSet, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cur, err := s.collection.Find(ctx, bson.D{}, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("find: %w", err)}
	}
	defer cur.Close(ctx)

	titles := types.NewTitleSet()
	for cur.Next(ctx) {
		var doc titleDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("decode: %w", err)}
		}
		titles.Add(doc.Title)
	}
	if err := cur.Err(); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.logger.Debug("state loaded", "titles", titles.Len())
	return titles, nil
}

// Save upserts every title. The set only grows, so upserting the full set
// leaves the collection equal to it.
func (s *MongoTitleStore) Save(ctx context.Context, titles types.TitleSet) error {
	if titles.Len() == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, titles.Len())
	for _, title := range titles.Sorted() {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: title}}).
			SetUpdate(bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "first_seen", Value: now}}}}).
			SetUpsert(true))
	}

	res, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("bulk upsert: %w", err)}
	}

	s.logger.Debug("state saved", "titles", titles.Len(), "inserted", res.UpsertedCount)
	return nil
}

func (s *MongoTitleStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
