package payoutRepo

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

// MongoPayoutRepo implements PayoutRepository using MongoDB. It also holds
// the invoice and payment collections because cancellation touches all three
// in one transaction.
type MongoPayoutRepo struct {
	coll        *mongo.Collection
	invoiceColl *mongo.Collection
	paymentColl *mongo.Collection
}

// NewMongoPayoutRepo creates a new PayoutRepository backed by MongoDB.
func NewMongoPayoutRepo() PayoutRepository {
	db := database.MongoClient.Database(database.DatabaseName)
	repo := &MongoPayoutRepo{
		coll:        db.Collection("payouts"),
		invoiceColl: db.Collection("invoices"),
		paymentColl: db.Collection("payments"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create payout indexes: %v\n", err)
	}
	return repo
}

func (r *MongoPayoutRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "vendor_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "invoice_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a payout row.
func (r *MongoPayoutRepo) Create(ctx context.Context, payout *models.Payout) error {
	payout.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, payout); err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

// ListByVendor retrieves a vendor's payouts, newest first.
func (r *MongoPayoutRepo) ListByVendor(ctx context.Context, vendorID string) ([]models.Payout, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"vendor_id": vendorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts for vendor %s: %w", vendorID, err)
	}
	defer cursor.Close(ctx)

	var payouts []models.Payout
	if err := cursor.All(ctx, &payouts); err != nil {
		return nil, fmt.Errorf("failed to decode payouts: %w", err)
	}
	return payouts, nil
}

// SumSucceededByVendor nets a vendor's SUCCEEDED payouts; clawbacks carry
// negative amounts so they subtract naturally.
func (r *MongoPayoutRepo) SumSucceededByVendor(ctx context.Context, vendorID string, from, to *time.Time) (int64, error) {
	match := bson.M{"vendor_id": vendorID, "status": models.PaymentSucceeded}
	if from != nil || to != nil {
		rangeFilter := bson.M{}
		if from != nil {
			rangeFilter["$gte"] = *from
		}
		if to != nil {
			rangeFilter["$lt"] = *to
		}
		match["created_at"] = rangeFilter
	}
	return r.sum(ctx, match)
}

// SumTransferredByInvoice nets SUCCEEDED payouts attributed to one invoice.
func (r *MongoPayoutRepo) SumTransferredByInvoice(ctx context.Context, invoiceID string) (int64, error) {
	return r.sum(ctx, bson.M{"invoice_id": invoiceID, "status": models.PaymentSucceeded})
}

func (r *MongoPayoutRepo) sum(ctx context.Context, match bson.M) (int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payouts: %w", err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("failed to decode payout sum: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}
