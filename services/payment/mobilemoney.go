package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentRepo "vendora/database/repository/payment"
	"vendora/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitReceiptInput is the customer's claim of an out-of-band transfer.
type SubmitReceiptInput struct {
	PaymentID              string    `json:"payment_id"`
	ImageURL               string    `json:"image_url"`
	ClaimedReferenceNumber string    `json:"claimed_reference_number"`
	ClaimedPhone           string    `json:"claimed_phone"`
	ClaimedAmount          int64     `json:"claimed_amount"`
	ClaimedDate            time.Time `json:"claimed_date"`
}

// VerifyDecision is the reviewer's verdict on a receipt.
type VerifyDecision string

const (
	DecisionApprove VerifyDecision = "approve"
	DecisionReject  VerifyDecision = "reject"
)

// MobileMoneyRail handles the manual-verification channel: the customer
// transfers money out of band (m-pesa, tigopesa, ...), uploads evidence, and
// a vendor or admin reviews it. Approval is the rail's success signal.
type MobileMoneyRail struct {
	Intake IntakeService
	Repo   paymentRepo.PaymentRepository
	Logger *zap.Logger
}

// StartMobileMoneyPayment creates the PENDING attempt the customer will
// attach evidence to.
func (r *MobileMoneyRail) StartMobileMoneyPayment(ctx context.Context, in CreateAttemptInput) (*models.Payment, error) {
	in.Rail = models.RailMobileMoney
	if in.Method == "" {
		return nil, fmt.Errorf("mobile money method is required")
	}
	return r.Intake.CreatePaymentAttempt(ctx, in)
}

// SubmitReceipt attaches evidence to a PENDING mobile-money payment.
// One receipt per payment; a second submission is rejected.
func (r *MobileMoneyRail) SubmitReceipt(ctx context.Context, in SubmitReceiptInput) (*models.Receipt, error) {
	p, err := r.Repo.GetByID(ctx, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	if p.Rail != models.RailMobileMoney {
		return nil, ErrWrongRail
	}
	if p.Status != models.PaymentPending {
		return nil, ErrInvalidTransition
	}

	receipt := &models.Receipt{
		ID:                     uuid.New().String(),
		PaymentID:              p.ID,
		ImageURL:               in.ImageURL,
		ClaimedReferenceNumber: in.ClaimedReferenceNumber,
		ClaimedPhone:           in.ClaimedPhone,
		ClaimedAmount:          in.ClaimedAmount,
		ClaimedDate:            in.ClaimedDate,
		CreatedAt:              time.Now(),
	}
	if err := r.Repo.AttachReceipt(ctx, receipt); err != nil {
		if errors.Is(err, paymentRepo.ErrDuplicateKey) {
			return nil, ErrReceiptAlreadyAttached
		}
		return nil, err
	}

	r.Logger.Info("receipt submitted",
		zap.String("payment_id", p.ID),
		zap.String("claimed_ref", in.ClaimedReferenceNumber),
		zap.Int64("claimed_amount", in.ClaimedAmount))
	return receipt, nil
}

// VerifyReceipt applies the reviewer's decision. Approve resolves the payment
// SUCCEEDED with the claimed transfer reference as provider ref; reject
// resolves it FAILED. Either way the review stamp is recorded first so the
// queue drops the item even if resolution is retried.
func (r *MobileMoneyRail) VerifyReceipt(ctx context.Context, paymentID string, decision VerifyDecision, reviewerID string) (*models.Payment, error) {
	p, err := r.Repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	if p.Rail != models.RailMobileMoney {
		return nil, ErrWrongRail
	}
	if p.Status.Terminal() {
		return p, nil
	}

	receipt, err := r.Repo.GetReceiptByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ErrReceiptRequired
	}

	if err := r.Repo.SetReceiptReview(ctx, paymentID, reviewerID, time.Now()); err != nil {
		return nil, err
	}

	in := ResolveInput{
		PaymentID:   p.ID,
		Provider:    p.Method,
		ProviderRef: receipt.ClaimedReferenceNumber,
	}
	switch decision {
	case DecisionApprove:
		in.Outcome = models.OutcomeSucceeded
	case DecisionReject:
		in.Outcome = models.OutcomeFailed
		in.FailureReason = "receipt rejected by " + reviewerID
	default:
		return nil, fmt.Errorf("unknown decision: %s", decision)
	}

	resolved, err := r.Intake.ResolveOutcome(ctx, in)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("receipt verified",
		zap.String("payment_id", paymentID),
		zap.String("decision", string(decision)),
		zap.String("reviewer_id", reviewerID))
	return resolved, nil
}

// ListPendingVerification returns mobile-money payments waiting on review,
// optionally scoped to one vendor.
func (r *MobileMoneyRail) ListPendingVerification(ctx context.Context, vendorID string) ([]models.Payment, error) {
	return r.Repo.ListPendingVerification(ctx, vendorID)
}

// GetReceipt returns the evidence attached to a payment, if any.
func (r *MobileMoneyRail) GetReceipt(ctx context.Context, paymentID string) (*models.Receipt, error) {
	return r.Repo.GetReceiptByPaymentID(ctx, paymentID)
}
