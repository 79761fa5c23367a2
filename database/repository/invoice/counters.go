package invoiceRepo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"vendora/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateInvoiceNumber signals a collision on the unique invoice_number
// index; the invoice manager retries with a fresh number.
var ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")

// NextInvoiceNumber allocates the next invoice number. The sequence comes
// from an atomic $inc on a counters document, never from reading max+1 in
// application memory, and a random suffix keeps numbers unguessable.
func (r *MongoInvoiceRepo) NextInvoiceNumber(ctx context.Context) (string, error) {
	filter := bson.M{"_id": "invoice_number"}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := r.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return "", fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate invoice number suffix: %w", err)
	}

	prefix := config.AppConfig.InvoiceNumberPrefix
	if prefix == "" {
		prefix = "INV"
	}
	year := time.Now().Year()
	return fmt.Sprintf("%s-%d-%06d-%s", prefix, year, counter.Seq, hex.EncodeToString(suffix)), nil
}
