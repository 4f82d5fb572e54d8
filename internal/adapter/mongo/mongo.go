// Package mongo stores health metric samples in MongoDB.
package mongo

import (
	"context"
	"errors"
	"time"

	"technowear/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const samplesCollection = "health_metrics"

// Store is a HealthMetricRepository backed by one collection.
type Store struct {
	client *mongo.Client
	col    *mongo.Collection
}

var _ domain.HealthMetricRepository = (*Store)(nil)

// Connect dials MongoDB, pings it and ensures the lookup index exists.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	s := &Store{client: client, col: client.Database(dbName).Collection(samplesCollection)}
	_, err = s.col.Indexes().CreateOne(pingCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "recorded_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// LatestSample returns the user's newest sample, or nil.
func (s *Store) LatestSample(ctx context.Context, userID string) (*domain.HealthMetricSample, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "recorded_at", Value: -1}})
	var sample domain.HealthMetricSample
	err := s.col.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&sample)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

// InsertSample stores a sample.
func (s *Store) InsertSample(ctx context.Context, sample domain.HealthMetricSample) (domain.HealthMetricSample, error) {
	sample.RecordedAt = sample.RecordedAt.UTC()
	if _, err := s.col.InsertOne(ctx, sample); err != nil {
		return domain.HealthMetricSample{}, err
	}
	return sample, nil
}
