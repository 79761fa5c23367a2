package paymentRepo

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

// MongoPaymentRepo implements PaymentRepository using MongoDB. It holds the
// invoice collection too: the success resolution must update both inside one
// transaction.
type MongoPaymentRepo struct {
	coll        *mongo.Collection
	receiptColl *mongo.Collection
	invoiceColl *mongo.Collection
}

// NewMongoPaymentRepo creates a new PaymentRepository backed by MongoDB.
func NewMongoPaymentRepo() PaymentRepository {
	db := database.MongoClient.Database(database.DatabaseName)
	repo := &MongoPaymentRepo{
		coll:        db.Collection("payments"),
		receiptColl: db.Collection("receipts"),
		invoiceColl: db.Collection("invoices"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create payment indexes: %v\n", err)
	}
	return repo
}

func (r *MongoPaymentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	paymentIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// Client idempotency token: a retried submit maps to the same row.
		{
			Keys:    bson.D{{Key: "invoice_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// Provider reference: duplicate webhook deliveries collide here, not
		// in application-level checks.
		{
			Keys: bson.D{{Key: "provider", Value: 1}, {Key: "provider_ref", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"provider_ref": bson.M{"$exists": true, "$gt": ""}},
			),
		},
		{Keys: bson.D{{Key: "vendor_id", Value: 1}, {Key: "status", Value: 1}, {Key: "processed_at", Value: -1}}},
		{Keys: bson.D{{Key: "invoice_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, paymentIndexes); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}

	receiptIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// Exactly one receipt per payment.
		{Keys: bson.D{{Key: "payment_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.receiptColl.Indexes().CreateMany(ctx, receiptIndexes); err != nil {
		return fmt.Errorf("failed to create receipt indexes: %w", err)
	}
	return nil
}

// Create inserts a new payment document.
func (r *MongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its unique ID.
func (r *MongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payment with id %s: %w", id, err)
	}
	return &payment, nil
}

// GetByProviderRef retrieves a payment by its external provider reference.
func (r *MongoPaymentRepo) GetByProviderRef(ctx context.Context, provider, providerRef string) (*models.Payment, error) {
	var payment models.Payment
	filter := bson.M{"provider": provider, "provider_ref": providerRef}
	if err := r.coll.FindOne(ctx, filter).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payment with ref %s/%s: %w", provider, providerRef, err)
	}
	return &payment, nil
}

// GetByIdempotencyKey retrieves a payment by the client idempotency token.
func (r *MongoPaymentRepo) GetByIdempotencyKey(ctx context.Context, invoiceID, key string) (*models.Payment, error) {
	var payment models.Payment
	filter := bson.M{"invoice_id": invoiceID, "idempotency_key": key}
	if err := r.coll.FindOne(ctx, filter).Decode(&payment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch payment by idempotency key: %w", err)
	}
	return &payment, nil
}

// SetProviderRef records the provider reference assigned at intent creation.
func (r *MongoPaymentRepo) SetProviderRef(ctx context.Context, id, provider, providerRef string) error {
	update := bson.M{"$set": bson.M{
		"provider":     provider,
		"provider_ref": providerRef,
		"updated_at":   time.Now(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to set provider ref on payment %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("payment %s not found", id)
	}
	return nil
}

// MarkProcessing moves a payment from PENDING to PROCESSING.
func (r *MongoPaymentRepo) MarkProcessing(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"id": id, "status": models.PaymentPending}
	update := bson.M{"$set": bson.M{
		"status":     models.PaymentProcessing,
		"updated_at": time.Now(),
	}}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment %s processing: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

// ResolveFailed marks a non-terminal payment FAILED.
func (r *MongoPaymentRepo) ResolveFailed(ctx context.Context, id, provider, providerRef, reason string) (bool, error) {
	now := time.Now()
	set := bson.M{
		"status":         models.PaymentFailed,
		"failure_reason": reason,
		"processed_at":   now,
		"updated_at":     now,
	}
	if provider != "" {
		set["provider"] = provider
	}
	if providerRef != "" {
		set["provider_ref"] = providerRef
	}

	filter := bson.M{
		"id":     id,
		"status": bson.M{"$in": []models.PaymentStatus{models.PaymentPending, models.PaymentProcessing}},
	}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, ErrDuplicateKey
		}
		return false, fmt.Errorf("failed to mark payment %s failed: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

// MarkRefunded moves a SUCCEEDED payment into a refunded state.
func (r *MongoPaymentRepo) MarkRefunded(ctx context.Context, id string, status models.PaymentStatus) error {
	filter := bson.M{"id": id, "status": models.PaymentSucceeded}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark payment %s refunded: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// ListByInvoice retrieves all payments toward an invoice, oldest first. The
// ordering is load-bearing: refund shares are distributed across payments in
// this order, so it must be stable across calls.
func (r *MongoPaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"invoice_id": invoiceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for invoice %s: %w", invoiceID, err)
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

// ListByVendor retrieves a vendor's payments in the optional date window.
func (r *MongoPaymentRepo) ListByVendor(ctx context.Context, vendorID string, from, to *time.Time) ([]models.Payment, error) {
	filter := bson.M{"vendor_id": vendorID}
	if rangeFilter := dateRange(from, to); rangeFilter != nil {
		filter["created_at"] = rangeFilter
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for vendor %s: %w", vendorID, err)
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}

// SumSucceededByInvoice totals the SUCCEEDED payments on an invoice.
// Refunded payments still count: the money did arrive, and cancellation math
// runs over what was paid.
func (r *MongoPaymentRepo) SumSucceededByInvoice(ctx context.Context, invoiceID string) (int64, error) {
	matchStatuses := []models.PaymentStatus{
		models.PaymentSucceeded, models.PaymentRefunded, models.PaymentPartiallyRefunded,
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"invoice_id": invoiceID,
			"status":     bson.M{"$in": matchStatuses},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments for invoice %s: %w", invoiceID, err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("failed to decode payment sum: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// AggregateVendorRevenue sums vendor_amount and platform_fee_amount over a
// vendor's SUCCEEDED payments.
func (r *MongoPaymentRepo) AggregateVendorRevenue(ctx context.Context, vendorID string, from, to *time.Time) (int64, int64, error) {
	match := bson.M{
		"vendor_id": vendorID,
		"status": bson.M{"$in": []models.PaymentStatus{
			models.PaymentSucceeded, models.PaymentRefunded, models.PaymentPartiallyRefunded,
		}},
	}
	if rangeFilter := dateRange(from, to); rangeFilter != nil {
		match["processed_at"] = rangeFilter
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"vendor_total": bson.M{"$sum": "$vendor_amount"},
			"fee_total":    bson.M{"$sum": "$platform_fee_amount"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate revenue for vendor %s: %w", vendorID, err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		VendorTotal int64 `bson:"vendor_total"`
		FeeTotal    int64 `bson:"fee_total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, 0, fmt.Errorf("failed to decode revenue aggregate: %w", err)
	}
	if len(result) == 0 {
		return 0, 0, nil
	}
	return result[0].VendorTotal, result[0].FeeTotal, nil
}

func dateRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = *from
	}
	if to != nil {
		r["$lt"] = *to
	}
	return r
}
