package paymentRepo

import (
	"context"
	"fmt"

	"vendora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ResolveSucceededTx commits the SUCCEEDED resolution as one transaction:
// the payment row and the invoice paid_amount accumulator either both move
// or neither does. The invoice update is a guarded pipeline update so two
// concurrent resolutions can never lose an increment or push paid_amount
// past total_amount.
func (r *MongoPaymentRepo) ResolveSucceededTx(ctx context.Context, res SucceededResolution) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		paymentFilter := bson.M{
			"id":     res.PaymentID,
			"status": bson.M{"$in": []models.PaymentStatus{models.PaymentPending, models.PaymentProcessing}},
		}
		paymentUpdate := bson.M{"$set": bson.M{
			"status":              models.PaymentSucceeded,
			"provider":            res.Provider,
			"provider_ref":        res.ProviderRef,
			"platform_fee_amount": res.PlatformFee,
			"vendor_amount":       res.VendorAmt,
			"processed_at":        res.ProcessedAt,
			"updated_at":          res.ProcessedAt,
		}}

		pr, err := r.coll.UpdateOne(sc, paymentFilter, paymentUpdate)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicateKey
			}
			return fmt.Errorf("payment update failed: %w", err)
		}
		if pr.MatchedCount == 0 {
			return ErrConflict
		}

		// Guard: the increment only applies while the invoice is payable and
		// has room for the amount. MatchedCount == 0 aborts the transaction.
		invoiceFilter := bson.M{
			"id": res.InvoiceID,
			"status": bson.M{"$in": []models.InvoiceStatus{
				models.InvoicePending, models.InvoicePartiallyPaid, models.InvoiceOverdue,
			}},
			"$expr": bson.M{"$lte": bson.A{
				bson.M{"$add": bson.A{"$paid_amount", res.Amount}},
				"$total_amount",
			}},
		}
		newPaid := bson.M{"$add": bson.A{"$paid_amount", res.Amount}}
		invoiceUpdate := mongo.Pipeline{
			bson.D{{Key: "$set", Value: bson.M{
				"paid_amount": newPaid,
				"status": bson.M{"$cond": bson.A{
					bson.M{"$eq": bson.A{newPaid, "$total_amount"}},
					models.InvoicePaid,
					models.InvoicePartiallyPaid,
				}},
				"paid_at": bson.M{"$cond": bson.A{
					bson.M{"$eq": bson.A{newPaid, "$total_amount"}},
					res.ProcessedAt,
					"$paid_at",
				}},
				"updated_at": res.ProcessedAt,
			}}},
		}

		ir, err := r.invoiceColl.UpdateOne(sc, invoiceFilter, invoiceUpdate)
		if err != nil {
			return fmt.Errorf("invoice paid_amount update failed: %w", err)
		}
		if ir.MatchedCount == 0 {
			return ErrConflict
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return err
	}

	return nil
}
