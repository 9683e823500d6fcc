// Package invoicing wires the invoice ledger's use cases: creating and
// editing draft invoices, driving lifecycle transitions, recording payments
// and serving read paths. Services hold no state beyond their dependencies
// and are safe for concurrent use.
package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vetclinic/backend/internal/domain/directory"
	"github.com/vetclinic/backend/internal/domain/identity"
	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/domain/shared"
	"github.com/vetclinic/backend/internal/domain/shared/valueobject"
)

// Config carries the tenant deployment's invoicing defaults
type Config struct {
	DefaultTaxRate decimal.Decimal
	DueInDays      int
	Currency       valueobject.Currency
}

// DefaultConfig returns the stock configuration: 10% tax, 30 days to pay
func DefaultConfig() Config {
	return Config{
		DefaultTaxRate: decimal.NewFromInt(10),
		DueInDays:      30,
		Currency:       valueobject.DefaultCurrency,
	}
}

// InvoiceService provides the invoice lifecycle use cases
type InvoiceService struct {
	txScope     TransactionScope
	invoiceRepo invoicing.InvoiceRepository
	paymentRepo invoicing.PaymentRepository
	petRepo     directory.PetRepository
	ownerRepo   directory.OwnerRepository
	notifier    InvoiceNotifier
	invalidator ViewInvalidator
	logger      *zap.Logger
	cfg         Config
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	txScope TransactionScope,
	invoiceRepo invoicing.InvoiceRepository,
	paymentRepo invoicing.PaymentRepository,
	petRepo directory.PetRepository,
	ownerRepo directory.OwnerRepository,
	notifier InvoiceNotifier,
	invalidator ViewInvalidator,
	logger *zap.Logger,
	cfg Config,
) *InvoiceService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if invalidator == nil {
		invalidator = NopInvalidator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		txScope:     txScope,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		petRepo:     petRepo,
		ownerRepo:   ownerRepo,
		notifier:    notifier,
		invalidator: invalidator,
		logger:      logger,
		cfg:         cfg,
	}
}

// Create validates pet ownership, computes totals and persists a draft
// invoice with its items in one transaction. The invoice number is allocated
// atomically inside the same transaction.
func (s *InvoiceService) Create(ctx context.Context, actor identity.Actor, input CreateInvoiceInput) (*InvoiceResponse, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}

	pet, err := s.petRepo.FindByIDForTenant(ctx, actor.TenantID, input.PetID)
	if err != nil {
		return nil, err
	}

	taxRate := s.cfg.DefaultTaxRate
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}
	dueDate := input.DueDate
	if dueDate == nil {
		d := time.Now().AddDate(0, 0, s.cfg.DueInDays)
		dueDate = &d
	}

	var inv *invoicing.Invoice
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.InvoiceRepo().NextInvoiceNumber(ctx, actor.TenantID, time.Now())
		if err != nil {
			return err
		}

		inv, err = invoicing.NewInvoice(
			actor.TenantID, number, pet.ID, pet.OwnerID, s.cfg.Currency,
			toItemDrafts(input.Items), taxRate, dueDate, input.Notes, actor.UserID,
		)
		if err != nil {
			return err
		}

		return repos.InvoiceRepo().Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, actor.TenantID, inv.ID)
	return ToInvoiceResponse(inv), nil
}

// Update replaces the whole editable surface of a draft invoice. Items are
// replaced wholesale and totals recomputed; the owner is re-derived from the
// pet just like Create does.
func (s *InvoiceService) Update(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID, input UpdateInvoiceInput) (*InvoiceResponse, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}

	pet, err := s.petRepo.FindByIDForTenant(ctx, actor.TenantID, input.PetID)
	if err != nil {
		return nil, err
	}

	var inv *invoicing.Invoice
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err = repos.InvoiceRepo().FindByIDForTenant(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return err
		}

		taxRate := inv.TaxRate
		if input.TaxRate != nil {
			taxRate = *input.TaxRate
		}
		dueDate := inv.DueDate
		if input.DueDate != nil {
			dueDate = input.DueDate
		}

		if err := inv.Replace(pet.ID, pet.OwnerID, toItemDrafts(input.Items), taxRate, dueDate, input.Notes); err != nil {
			return err
		}

		return repos.InvoiceRepo().Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, actor.TenantID, inv.ID)
	return ToInvoiceResponse(inv), nil
}

// UpdateStatus applies an explicit lifecycle transition through the
// transition table, including caller-observed overdue.
func (s *InvoiceService) UpdateStatus(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID, target invoicing.InvoiceStatus, notes *string) (*InvoiceResponse, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}

	var inv *invoicing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.InvoiceRepo().FindByIDForTenant(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return err
		}

		if err := inv.ChangeStatus(target, actor.UserID); err != nil {
			return err
		}
		if notes != nil {
			inv.Notes = *notes
		}

		return repos.InvoiceRepo().UpdateHeader(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, actor.TenantID, inv.ID)
	return ToInvoiceResponse(inv), nil
}

// Send flips draft→sent (idempotent for invoices already presented) and then
// best-effort notifies the owner. Notification failure is logged and
// swallowed, never rolled back.
func (s *InvoiceService) Send(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID, input SendInvoiceInput) (*InvoiceResponse, error) {
	if err := actor.RequireStaff(); err != nil {
		return nil, err
	}

	var inv *invoicing.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		inv, err = repos.InvoiceRepo().FindByIDForTenant(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return err
		}

		if err := inv.MarkSent(actor.UserID); err != nil {
			return err
		}

		return repos.InvoiceRepo().UpdateHeader(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	if input.NotifyEmail {
		s.notifyOwner(ctx, inv, input.Message)
	}

	s.invalidate(ctx, actor.TenantID, inv.ID)
	return ToInvoiceResponse(inv), nil
}

// Void terminates the invoice through the privileged override: a draft is
// hard-deleted with its items, anything else becomes void with an audit
// stamp. Voiding an invoice that has payments requires the admin role.
func (s *InvoiceService) Void(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID, reason string) error {
	if err := actor.RequireStaff(); err != nil {
		return err
	}

	var voidedID uuid.UUID
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForTenant(ctx, actor.TenantID, invoiceID)
		if err != nil {
			return err
		}

		hardDelete, err := inv.Void(actor, reason)
		if err != nil {
			return err
		}
		voidedID = inv.ID

		if hardDelete {
			return repos.InvoiceRepo().DeleteWithItems(ctx, actor.TenantID, inv.ID)
		}
		return repos.InvoiceRepo().UpdateHeader(ctx, inv)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, actor.TenantID, voidedID)
	return nil
}

// GetByID returns an invoice with its items and payments. Staff see every
// invoice in their tenant; a pet owner only their own.
func (s *InvoiceService) GetByID(ctx context.Context, actor identity.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
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

	resp := ToInvoiceResponse(inv)
	resp.Payments = make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		resp.Payments = append(resp.Payments, ToPaymentResponse(&payments[i]))
	}
	return resp, nil
}

// List returns a page of invoices. The owner role is always narrowed to its
// own invoices regardless of the requested filter.
func (s *InvoiceService) List(ctx context.Context, actor identity.Actor, input ListInvoicesInput) (shared.Paginated[InvoiceResponse], error) {
	filter := invoicing.InvoiceFilter{
		Filter:   shared.DefaultFilter(),
		Status:   input.Status,
		PetID:    input.PetID,
		OwnerID:  input.OwnerID,
		FromDate: input.FromDate,
		ToDate:   input.ToDate,
	}
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = input.PageSize
	}
	if !actor.Role.IsStaff() {
		ownerID := actor.UserID
		filter.OwnerID = &ownerID
	}

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, actor.TenantID, filter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, err
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, actor.TenantID, filter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, err
	}

	return ToInvoiceListResponse(invoices, total, filter.Page, filter.PageSize), nil
}

func (s *InvoiceService) notifyOwner(ctx context.Context, inv *invoicing.Invoice, message string) {
	owner, err := s.ownerRepo.FindByIDForTenant(ctx, inv.TenantID, inv.OwnerID)
	if err != nil {
		s.logger.Warn("invoice notification skipped: owner lookup failed",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Error(err))
		return
	}
	if err := s.notifier.NotifyInvoiceSent(ctx, inv, owner, message); err != nil {
		s.logger.Warn("invoice notification failed",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.String("owner_email", owner.Email),
			zap.Error(err))
	}
}

func (s *InvoiceService) invalidate(ctx context.Context, tenantID, invoiceID uuid.UUID) {
	if err := s.invalidator.InvalidateInvoice(ctx, tenantID.String(), invoiceID.String()); err != nil {
		s.logger.Warn("invoice view invalidation failed",
			zap.String("invoice_id", invoiceID.String()),
			zap.Error(err))
	}
}
