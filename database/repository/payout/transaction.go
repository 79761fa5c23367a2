package payoutRepo

import (
	"context"
	"fmt"

	"vendora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ExecuteCancellationTx applies a cancellation atomically: the invoice
// becomes CANCELLED under the caller's token, affected payments get their
// refund marks, and clawback payout rows are inserted. Re-invoking with the
// same token after a crash is a no-op; a different token on an already
// cancelled invoice is a conflict.
func (r *MongoPayoutRepo) ExecuteCancellationTx(ctx context.Context, exec CancellationExecution) (bool, error) {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return false, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	already := false

	txnFn := func(sc mongo.SessionContext) error {
		var inv models.Invoice
		if err := r.invoiceColl.FindOne(sc, bson.M{"id": exec.InvoiceID}).Decode(&inv); err != nil {
			return fmt.Errorf("failed to load invoice %s: %w", exec.InvoiceID, err)
		}

		if inv.Status == models.InvoiceCancelled {
			if inv.CancellationToken == exec.Token {
				already = true
				return nil
			}
			return ErrConflict
		}

		// Token-guarded terminal transition. paid_amount freezes here.
		filter := bson.M{
			"id":                 exec.InvoiceID,
			"status":             bson.M{"$ne": models.InvoiceCancelled},
			"cancellation_token": bson.M{"$in": bson.A{nil, ""}},
		}
		update := bson.M{"$set": bson.M{
			"status":             models.InvoiceCancelled,
			"cancellation_token": exec.Token,
			"cancelled_by":       exec.CancelledBy,
			"cancelled_at":       exec.At,
			"refund_settled":     false,
			"updated_at":         exec.At,
		}}
		res, err := r.invoiceColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("invoice cancellation update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrConflict
		}

		for _, mark := range exec.Marks {
			mRes, err := r.paymentColl.UpdateOne(sc,
				bson.M{"id": mark.PaymentID, "status": models.PaymentSucceeded},
				bson.M{"$set": bson.M{
					"status":        mark.Status,
					"refund_amount": mark.Amount,
					"updated_at":    exec.At,
				}},
			)
			if err != nil {
				return fmt.Errorf("payment refund mark failed: %w", err)
			}
			if mRes.MatchedCount == 0 {
				return ErrConflict
			}
		}

		for i := range exec.Clawbacks {
			exec.Clawbacks[i].CreatedAt = exec.At
			if _, err := r.coll.InsertOne(sc, exec.Clawbacks[i]); err != nil {
				return fmt.Errorf("clawback payout insert failed: %w", err)
			}
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
		return false, err
	}

	return already, nil
}
