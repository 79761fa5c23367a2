package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"vendora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AttachReceipt inserts the receipt for a mobile-money payment. The unique
// payment_id index rejects a second receipt for the same payment.
func (r *MongoPaymentRepo) AttachReceipt(ctx context.Context, receipt *models.Receipt) error {
	receipt.CreatedAt = time.Now()

	if _, err := r.receiptColl.InsertOne(ctx, receipt); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to attach receipt: %w", err)
	}
	return nil
}

// GetReceiptByPaymentID retrieves the receipt attached to a payment, if any.
func (r *MongoPaymentRepo) GetReceiptByPaymentID(ctx context.Context, paymentID string) (*models.Receipt, error) {
	var receipt models.Receipt
	if err := r.receiptColl.FindOne(ctx, bson.M{"payment_id": paymentID}).Decode(&receipt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch receipt for payment %s: %w", paymentID, err)
	}
	return &receipt, nil
}

// SetReceiptReview records who verified the receipt and when.
func (r *MongoPaymentRepo) SetReceiptReview(ctx context.Context, paymentID, reviewerID string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"reviewed_by": reviewerID,
		"reviewed_at": at,
	}}
	result, err := r.receiptColl.UpdateOne(ctx, bson.M{"payment_id": paymentID}, update)
	if err != nil {
		return fmt.Errorf("failed to set receipt review for payment %s: %w", paymentID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("receipt for payment %s not found", paymentID)
	}
	return nil
}

// ListPendingVerification returns the manual verification queue: mobile-money
// payments still PENDING that already have a receipt attached.
func (r *MongoPaymentRepo) ListPendingVerification(ctx context.Context, vendorID string) ([]models.Payment, error) {
	cursor, err := r.receiptColl.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer cursor.Close(ctx)

	var receipts []models.Receipt
	if err := cursor.All(ctx, &receipts); err != nil {
		return nil, fmt.Errorf("failed to decode receipts: %w", err)
	}
	if len(receipts) == 0 {
		return nil, nil
	}

	paymentIDs := make([]string, 0, len(receipts))
	for _, rec := range receipts {
		paymentIDs = append(paymentIDs, rec.PaymentID)
	}

	filter := bson.M{
		"id":     bson.M{"$in": paymentIDs},
		"rail":   models.RailMobileMoney,
		"status": models.PaymentPending,
	}
	if vendorID != "" {
		filter["vendor_id"] = vendorID
	}

	payCursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending verification payments: %w", err)
	}
	defer payCursor.Close(ctx)

	var payments []models.Payment
	if err := payCursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	return payments, nil
}
