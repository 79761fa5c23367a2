package inquiryRepo

import (
	"context"
	"fmt"
	"time"

	"vendora/database"
	"vendora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoInquiryRepo implements InquiryRepository using MongoDB.
type MongoInquiryRepo struct {
	coll *mongo.Collection
}

// NewMongoInquiryRepo creates a new InquiryRepository backed by MongoDB.
func NewMongoInquiryRepo() InquiryRepository {
	coll := database.MongoClient.Database(database.DatabaseName).Collection("inquiries")
	repo := &MongoInquiryRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create inquiry indexes: %v\n", err)
	}
	return repo
}

func (r *MongoInquiryRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "vendor_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new inquiry document.
func (r *MongoInquiryRepo) Create(ctx context.Context, inquiry *models.Inquiry) error {
	now := time.Now()
	inquiry.CreatedAt = now
	inquiry.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, inquiry); err != nil {
		return fmt.Errorf("failed to create inquiry: %w", err)
	}
	return nil
}

// GetByID retrieves an inquiry by its unique ID.
func (r *MongoInquiryRepo) GetByID(ctx context.Context, id string) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&inquiry); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch inquiry with id %s: %w", id, err)
	}
	return &inquiry, nil
}

// SetResponse records the vendor's response on a still-open inquiry.
// responded_at is set together with the status so the two never disagree.
func (r *MongoInquiryRepo) SetResponse(ctx context.Context, id, vendorID string, status models.InquiryStatus, response string, respondedAt time.Time) error {
	filter := bson.M{
		"id":        id,
		"vendor_id": vendorID,
		"status":    bson.M{"$in": []models.InquiryStatus{models.InquiryPending, models.InquiryResponded}},
	}
	update := bson.M{"$set": bson.M{
		"status":          status,
		"vendor_response": response,
		"responded_at":    respondedAt,
		"updated_at":      time.Now(),
	}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update inquiry %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("inquiry %s not found or not open for vendor %s", id, vendorID)
	}
	return nil
}

// ListByVendor retrieves all inquiries for a vendor, newest first.
func (r *MongoInquiryRepo) ListByVendor(ctx context.Context, vendorID string) ([]models.Inquiry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"vendor_id": vendorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	defer cursor.Close(ctx)

	var inquiries []models.Inquiry
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("failed to decode inquiries: %w", err)
	}
	return inquiries, nil
}
