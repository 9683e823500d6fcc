package invoicing

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vetclinic/backend/internal/domain/identity"
	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/domain/shared"
)

// PaymentService records payments against invoices. RecordPayment is the one
// concurrency-critical path of the ledger: it re-reads the invoice under a
// row lock so two concurrent payments can never jointly overdraw the balance.
type PaymentService struct {
	txScope     TransactionScope
	invoiceRepo invoicing.InvoiceRepository
	paymentRepo invoicing.PaymentRepository
	invalidator ViewInvalidator
	logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	txScope TransactionScope,
	invoiceRepo invoicing.InvoiceRepository,
	paymentRepo invoicing.PaymentRepository,
	invalidator ViewInvalidator,
	logger *zap.Logger,
) *PaymentService {
	if invalidator == nil {
		invalidator = NopInvalidator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		txScope:     txScope,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		invalidator: invalidator,
		logger:      logger,
	}
}

// RecordPayment applies one payment atomically. The invoice row is locked for
// the duration of the transaction; balance checks, the payment insert and the
// invoice update all happen under that lock so they commit or roll back as a
// unit. A resubmission with an already-used reference number is rejected
// rather than double-applied.
func (s *PaymentService) RecordPayment(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID, input RecordPaymentInput) (*RecordPaymentResult, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}
	// Fast-fail before touching storage; everything else needs the lock
	if !input.Amount.IsPositive() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Payment method is not valid")
	}

	var result *RecordPaymentResult
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForTenantLocked(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return err
		}

		if input.ReferenceNumber != "" {
			exists, err := repos.PaymentRepo().ExistsByReference(ctx, actor.TenantID, inv.ID, input.ReferenceNumber)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError("CONFLICT",
					"A payment with this reference number was already recorded for this invoice")
			}
		}

		payment, err := inv.ApplyPayment(input.Amount, input.Method, input.ReferenceNumber, input.Notes, actor.UserID)
		if err != nil {
			return err
		}

		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().UpdateHeader(ctx, inv); err != nil {
			return err
		}

		result = &RecordPaymentResult{
			PaymentID:  payment.ID,
			Status:     inv.Status,
			AmountPaid: inv.AmountPaid,
			AmountDue:  inv.AmountDue,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("payment_id", result.PaymentID.String()),
		zap.String("amount", input.Amount.String()),
		zap.String("status", result.Status.String()))

	if err := s.invalidator.InvalidateInvoice(ctx, actor.TenantID.String(), invoiceID.String()); err != nil {
		s.logger.Warn("invoice view invalidation failed",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err))
	}

	return result, nil
}

// ListByInvoice returns all payments of one invoice, oldest first. Access
// follows the invoice's read rules.
func (s *PaymentService) ListByInvoice(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	inv, err := s.invoiceRepo.FindByIDForTenant(ctx, actor.TenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.BelongsTo(actor) {
		return nil, shared.ErrForbidden
	}

	payments, err := s.paymentRepo.FindByInvoiceForTenant(ctx, actor.TenantID, inv.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, ToPaymentResponse(&payments[i]))
	}
	return responses, nil
}
