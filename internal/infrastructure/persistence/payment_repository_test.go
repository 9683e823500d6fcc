package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetclinic/backend/internal/domain/invoicing"
)

func TestGormPaymentRepository(t *testing.T) {
	db := setupInvoicingTestDB(t)
	repo := NewGormPaymentRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	invoiceID := uuid.New()
	receivedBy := uuid.New()

	newPayment := func(amount int64, reference string) *invoicing.Payment {
		p, err := invoicing.NewPayment(tenantID, invoiceID, decimal.NewFromInt(amount),
			invoicing.PaymentMethodCash, reference, "", receivedBy)
		require.NoError(t, err)
		return p
	}

	t.Run("saves and lists oldest first", func(t *testing.T) {
		first := newPayment(50000, "")
		second := newPayment(89700, "REF-1")
		second.PaidAt = first.PaidAt.Add(1000)

		require.NoError(t, repo.Save(ctx, first))
		require.NoError(t, repo.Save(ctx, second))

		payments, err := repo.FindByInvoiceForTenant(ctx, tenantID, invoiceID)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(50000)))
		assert.True(t, payments[1].Amount.Equal(decimal.NewFromInt(89700)))
		assert.Equal(t, "REF-1", payments[1].ReferenceNumber)
	})

	t.Run("reference lookup", func(t *testing.T) {
		exists, err := repo.ExistsByReference(ctx, tenantID, invoiceID, "REF-1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByReference(ctx, tenantID, invoiceID, "REF-2")
		require.NoError(t, err)
		assert.False(t, exists)

		// Same reference under another tenant does not collide
		exists, err = repo.ExistsByReference(ctx, uuid.New(), invoiceID, "REF-1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("payments are tenant-scoped", func(t *testing.T) {
		payments, err := repo.FindByInvoiceForTenant(ctx, uuid.New(), invoiceID)
		require.NoError(t, err)
		assert.Empty(t, payments)
	})
}
