package invoiceRepo

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

// MongoInvoiceRepo implements InvoiceRepository using MongoDB.
type MongoInvoiceRepo struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

// NewMongoInvoiceRepo creates a new InvoiceRepository backed by MongoDB.
func NewMongoInvoiceRepo() InvoiceRepository {
	db := database.MongoClient.Database(database.DatabaseName)
	repo := &MongoInvoiceRepo{
		coll:     db.Collection("invoices"),
		counters: db.Collection("counters"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create invoice indexes: %v\n", err)
	}
	return repo
}

func (r *MongoInvoiceRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		// The database, not the application, is what guarantees invoice
		// numbers never collide.
		{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "vendor_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "inquiry_id", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new invoice document.
func (r *MongoInvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	now := time.Now()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, invoice); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateInvoiceNumber
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// GetByID retrieves an invoice by its unique ID.
func (r *MongoInvoiceRepo) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&invoice); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch invoice with id %s: %w", id, err)
	}
	return &invoice, nil
}

// TransitionToPending moves a DRAFT invoice to PENDING so it becomes payable.
func (r *MongoInvoiceRepo) TransitionToPending(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"id": id, "status": models.InvoiceDraft}
	update := bson.M{"$set": bson.M{
		"status":     models.InvoicePending,
		"updated_at": time.Now(),
	}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to transition invoice %s: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

// MarkWorkStarted sets the work_started flag. Only the owning vendor can set
// it, and only once the invoice has received money.
func (r *MongoInvoiceRepo) MarkWorkStarted(ctx context.Context, id, vendorID string) (bool, error) {
	filter := bson.M{
		"id":        id,
		"vendor_id": vendorID,
		"status":    bson.M{"$in": []models.InvoiceStatus{models.InvoicePaid, models.InvoicePartiallyPaid}},
	}
	update := bson.M{"$set": bson.M{
		"work_started": true,
		"updated_at":   time.Now(),
	}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark work started on invoice %s: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

// SetRefundSettled records the outcome of a refund execution attempt.
func (r *MongoInvoiceRepo) SetRefundSettled(ctx context.Context, id string, settled bool) error {
	update := bson.M{"$set": bson.M{
		"refund_settled": settled,
		"updated_at":     time.Now(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set refund_settled on invoice %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("invoice %s not found", id)
	}
	return nil
}

// ListByVendor retrieves a vendor's invoices, optionally filtered by status.
func (r *MongoInvoiceRepo) ListByVendor(ctx context.Context, vendorID string, status models.InvoiceStatus) ([]models.Invoice, error) {
	filter := bson.M{"vendor_id": vendorID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var invoices []models.Invoice
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("failed to decode invoices: %w", err)
	}
	return invoices, nil
}

// SweepOverdue marks payable invoices past their due date as OVERDUE.
func (r *MongoInvoiceRepo) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":   bson.M{"$in": []models.InvoiceStatus{models.InvoicePending, models.InvoicePartiallyPaid}},
		"due_date": bson.M{"$lt": now},
		// Invoices with partial payment activity keep their status; only
		// untouched PENDING invoices flip.
		"paid_amount": int64(0),
	}
	update := bson.M{"$set": bson.M{
		"status":     models.InvoiceOverdue,
		"updated_at": now,
	}}

	result, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep overdue invoices: %w", err)
	}
	return result.ModifiedCount, nil
}
