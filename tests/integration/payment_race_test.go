package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appinvoicing "github.com/vetclinic/backend/internal/application/invoicing"
	"github.com/vetclinic/backend/internal/domain/identity"
	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/domain/shared"
	"github.com/vetclinic/backend/internal/domain/shared/valueobject"
	"github.com/vetclinic/backend/internal/infrastructure/persistence"
)

// paymentRaceSetup wires a real PaymentService against a containerized
// PostgreSQL so the FOR UPDATE row lock is actually exercised.
type paymentRaceSetup struct {
	DB             *TestDB
	InvoiceRepo    invoicing.InvoiceRepository
	PaymentRepo    invoicing.PaymentRepository
	PaymentService *appinvoicing.PaymentService
	TenantID       uuid.UUID
	Actor          identity.Actor
}

func newPaymentRaceSetup(t *testing.T) *paymentRaceSetup {
	t.Helper()

	testDB := NewTestDB(t)

	invoiceRepo := persistence.NewGormInvoiceRepository(testDB.DB)
	paymentRepo := persistence.NewGormPaymentRepository(testDB.DB)
	txScope := persistence.NewGormTransactionScope(testDB.DB)

	tenantID := uuid.New()
	actor := identity.Actor{UserID: uuid.New(), TenantID: tenantID, Role: identity.RoleVet}

	return &paymentRaceSetup{
		DB:             testDB,
		InvoiceRepo:    invoiceRepo,
		PaymentRepo:    paymentRepo,
		PaymentService: appinvoicing.NewPaymentService(txScope, invoiceRepo, paymentRepo, nil, zap.NewNop()),
		TenantID:       tenantID,
		Actor:          actor,
	}
}

// createSentInvoice persists a sent invoice with the given total (tax-free
// single line item) and returns it.
func (s *paymentRaceSetup) createSentInvoice(t *testing.T, total int64) *invoicing.Invoice {
	t.Helper()

	inv, err := invoicing.NewInvoice(
		s.TenantID,
		"INV-20260831-00001",
		uuid.New(),
		uuid.New(),
		valueobject.PYG,
		[]invoicing.ItemDraft{{
			Description: "Consultation",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(total),
		}},
		decimal.Zero,
		nil,
		"",
		s.Actor.UserID,
	)
	require.NoError(t, err)
	require.NoError(t, inv.MarkSent(s.Actor.UserID))

	require.NoError(t, s.InvoiceRepo.Create(context.Background(), inv))
	return inv
}

func TestRecordPaymentConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	t.Run("two concurrent payments cannot jointly overdraw the balance", func(t *testing.T) {
		setup := newPaymentRaceSetup(t)
		inv := setup.createSentInvoice(t, 100000)
		ctx := context.Background()

		// Both submissions are individually valid against amount_due=100000,
		// but together they would overdraw it. The row lock must serialize
		// them so the second sees the reduced balance.
		amount := decimal.NewFromInt(60000)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				_, errs[slot] = setup.PaymentService.RecordPayment(ctx, setup.Actor, inv.ID,
					appinvoicing.RecordPaymentInput{
						Amount: amount,
						Method: invoicing.PaymentMethodCash,
					})
			}(i)
		}
		wg.Wait()

		var succeeded, conflicted int
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			var derr *shared.DomainError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, "CONFLICT", derr.Code)
			conflicted++
		}
		assert.Equal(t, 1, succeeded, "exactly one payment must be accepted")
		assert.Equal(t, 1, conflicted, "the losing payment must be rejected as overpayment")

		reloaded, err := setup.InvoiceRepo.FindByIDForTenant(ctx, setup.TenantID, inv.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.AmountPaid.Equal(decimal.NewFromInt(60000)),
			"amount_paid = %s", reloaded.AmountPaid)
		assert.True(t, reloaded.AmountDue.Equal(decimal.NewFromInt(40000)),
			"amount_due = %s", reloaded.AmountDue)
		assert.Equal(t, invoicing.InvoiceStatusPartial, reloaded.Status)

		payments, err := setup.PaymentRepo.FindByInvoiceForTenant(ctx, setup.TenantID, inv.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1, "only the winning payment may be stored")
		assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(60000)))
	})

	t.Run("concurrent full settlements leave the invoice paid exactly once", func(t *testing.T) {
		setup := newPaymentRaceSetup(t)
		inv := setup.createSentInvoice(t, 100000)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				_, errs[slot] = setup.PaymentService.RecordPayment(ctx, setup.Actor, inv.ID,
					appinvoicing.RecordPaymentInput{
						Amount: decimal.NewFromInt(100000),
						Method: invoicing.PaymentMethodTransfer,
					})
			}(i)
		}
		wg.Wait()

		var succeeded int
		for _, err := range errs {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded, "the invoice can only be settled once")

		reloaded, err := setup.InvoiceRepo.FindByIDForTenant(ctx, setup.TenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, invoicing.InvoiceStatusPaid, reloaded.Status)
		assert.True(t, reloaded.AmountDue.IsZero())
		assert.True(t, reloaded.AmountPaid.Equal(decimal.NewFromInt(100000)))

		payments, err := setup.PaymentRepo.FindByInvoiceForTenant(ctx, setup.TenantID, inv.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
	})
}
