package eventsRepo

import (
	"context"
	"fmt"
	"time"

	"vendora/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEventRepo implements EventRepository using MongoDB.
type MongoEventRepo struct {
	coll *mongo.Collection
}

// NewMongoEventRepo creates a new EventRepository backed by MongoDB.
func NewMongoEventRepo() EventRepository {
	coll := database.MongoClient.Database(database.DatabaseName).Collection("provider_events")
	repo := &MongoEventRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create event indexes: %v\n", err)
	}
	return repo
}

func (r *MongoEventRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Insert stores a delivery, deduplicating on (provider, event_id).
func (r *MongoEventRepo) Insert(ctx context.Context, event *ProviderEvent) (bool, error) {
	event.ReceivedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to persist provider event: %w", err)
	}
	return true, nil
}

// MarkProcessed stamps a delivery as applied.
func (r *MongoEventRepo) MarkProcessed(ctx context.Context, id string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{"processed_at": now, "process_error": ""}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("failed to mark event %s processed: %w", id, err)
	}
	return nil
}

// MarkError records why applying a delivery failed so the provider's retry
// has something to reconcile against.
func (r *MongoEventRepo) MarkError(ctx context.Context, id, message string) error {
	if len(message) > 250 {
		message = message[:250]
	}
	update := bson.M{"$set": bson.M{"process_error": message}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("failed to mark event %s error: %w", id, err)
	}
	return nil
}
