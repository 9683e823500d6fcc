package invoicing

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetclinic/backend/internal/domain/identity"
	"github.com/vetclinic/backend/internal/domain/shared"
	"github.com/vetclinic/backend/internal/domain/shared/valueobject"
)

func newTestInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewInvoice(
		uuid.New(),
		"INV-20260831-00001",
		uuid.New(),
		uuid.New(),
		valueobject.PYG,
		[]ItemDraft{draft(2, 50000, 0), draft(1, 30000, 10)},
		decimal.NewFromInt(10),
		nil,
		"",
		uuid.New(),
	)
	require.NoError(t, err)
	return inv
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

func TestNewInvoice(t *testing.T) {
	inv := newTestInvoice(t)

	assert.Equal(t, InvoiceStatusDraft, inv.Status)
	assert.Len(t, inv.Items, 2)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(127000)))
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(12700)))
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(139700)))
	assert.True(t, inv.AmountPaid.IsZero())
	assert.True(t, inv.AmountDue.Equal(inv.Total))

	events := inv.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "InvoiceCreated", events[0].EventType())
}

func TestNewInvoiceValidation(t *testing.T) {
	t.Run("requires items", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-1", uuid.New(), uuid.New(),
			valueobject.PYG, nil, decimal.NewFromInt(10), nil, "", uuid.New())
		assertDomainCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("requires pet", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "INV-1", uuid.Nil, uuid.New(),
			valueobject.PYG, []ItemDraft{draft(1, 1000, 0)}, decimal.NewFromInt(10), nil, "", uuid.New())
		assertDomainCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("requires number", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), "", uuid.New(), uuid.New(),
			valueobject.PYG, []ItemDraft{draft(1, 1000, 0)}, decimal.NewFromInt(10), nil, "", uuid.New())
		assertDomainCode(t, err, "VALIDATION_ERROR")
	})
}

func TestInvoiceStatusTransitions(t *testing.T) {
	t.Run("allowed transitions", func(t *testing.T) {
		assert.True(t, InvoiceStatusDraft.CanTransitionTo(InvoiceStatusSent))
		assert.True(t, InvoiceStatusDraft.CanTransitionTo(InvoiceStatusCancelled))
		assert.True(t, InvoiceStatusSent.CanTransitionTo(InvoiceStatusPaid))
		assert.True(t, InvoiceStatusSent.CanTransitionTo(InvoiceStatusPartial))
		assert.True(t, InvoiceStatusSent.CanTransitionTo(InvoiceStatusOverdue))
		assert.True(t, InvoiceStatusSent.CanTransitionTo(InvoiceStatusCancelled))
		assert.True(t, InvoiceStatusPartial.CanTransitionTo(InvoiceStatusPaid))
		assert.True(t, InvoiceStatusPartial.CanTransitionTo(InvoiceStatusOverdue))
		assert.True(t, InvoiceStatusOverdue.CanTransitionTo(InvoiceStatusPartial))
		assert.True(t, InvoiceStatusOverdue.CanTransitionTo(InvoiceStatusPaid))
	})

	t.Run("rejected transitions", func(t *testing.T) {
		assert.False(t, InvoiceStatusDraft.CanTransitionTo(InvoiceStatusPaid))
		assert.False(t, InvoiceStatusDraft.CanTransitionTo(InvoiceStatusPartial))
		assert.False(t, InvoiceStatusSent.CanTransitionTo(InvoiceStatusDraft))
		assert.False(t, InvoiceStatusPartial.CanTransitionTo(InvoiceStatusSent))
	})

	t.Run("terminal states have no outgoing transitions", func(t *testing.T) {
		for _, s := range []InvoiceStatus{InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusVoid} {
			for _, target := range []InvoiceStatus{InvoiceStatusDraft, InvoiceStatusSent,
				InvoiceStatusPartial, InvoiceStatusOverdue, InvoiceStatusPaid,
				InvoiceStatusCancelled, InvoiceStatusVoid} {
				assert.False(t, s.CanTransitionTo(target), "%s -> %s should be rejected", s, target)
			}
			assert.True(t, s.IsTerminal())
		}
	})
}

func TestInvoiceChangeStatus(t *testing.T) {
	t.Run("rejects untabled transition with source and target named", func(t *testing.T) {
		inv := newTestInvoice(t)
		err := inv.ChangeStatus(InvoiceStatusPaid, uuid.New())
		assertDomainCode(t, err, "CONFLICT")
		assert.Contains(t, err.Error(), "draft")
		assert.Contains(t, err.Error(), "paid")
	})

	t.Run("cancel stamps cancelled_at and cancelled_by", func(t *testing.T) {
		inv := newTestInvoice(t)
		actor := uuid.New()
		require.NoError(t, inv.ChangeStatus(InvoiceStatusCancelled, actor))
		assert.Equal(t, InvoiceStatusCancelled, inv.Status)
		require.NotNil(t, inv.CancelledAt)
		require.NotNil(t, inv.CancelledBy)
		assert.Equal(t, actor, *inv.CancelledBy)
	})

	t.Run("void is not reachable through the table", func(t *testing.T) {
		inv := newTestInvoice(t)
		err := inv.ChangeStatus(InvoiceStatusVoid, uuid.New())
		assertDomainCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("overdue can be set explicitly on a sent invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))
		require.NoError(t, inv.ChangeStatus(InvoiceStatusOverdue, uuid.New()))
		assert.Equal(t, InvoiceStatusOverdue, inv.Status)
	})
}

func TestInvoiceMarkSent(t *testing.T) {
	inv := newTestInvoice(t)
	actor := uuid.New()

	require.NoError(t, inv.MarkSent(actor))
	assert.Equal(t, InvoiceStatusSent, inv.Status)
	require.NotNil(t, inv.SentAt)
	require.NotNil(t, inv.SentBy)
	assert.Equal(t, actor, *inv.SentBy)
	firstSentAt := *inv.SentAt

	// Second send is a no-op, not a restamp
	require.NoError(t, inv.MarkSent(uuid.New()))
	assert.Equal(t, firstSentAt, *inv.SentAt)
	assert.Equal(t, actor, *inv.SentBy)

	t.Run("rejected on cancelled invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ChangeStatus(InvoiceStatusCancelled, uuid.New()))
		assertDomainCode(t, inv.MarkSent(uuid.New()), "CONFLICT")
	})
}

func TestInvoiceApplyPayment(t *testing.T) {
	t.Run("partial then final payment", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))

		p1, err := inv.ApplyPayment(decimal.NewFromInt(50000), PaymentMethodCash, "", "", uuid.New())
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
		assert.True(t, inv.AmountPaid.Equal(decimal.NewFromInt(50000)))
		assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(89700)))
		assert.True(t, p1.Amount.Equal(decimal.NewFromInt(50000)))
		assert.Nil(t, inv.PaidAt)

		_, err = inv.ApplyPayment(decimal.NewFromInt(89700), PaymentMethodCard, "REF-1", "", uuid.New())
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.AmountDue.IsZero())
		require.NotNil(t, inv.PaidAt)
		assert.True(t, inv.AmountPaid.Equal(inv.Total))
	})

	t.Run("rejects overpayment and reports the balance", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))
		_, err := inv.ApplyPayment(decimal.NewFromInt(139701), PaymentMethodCash, "", "", uuid.New())
		assertDomainCode(t, err, "CONFLICT")
		assert.Contains(t, err.Error(), "139700")
	})

	t.Run("rejects amounts finer than the currency unit", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))

		// Sub-unit amount would round to zero while the payment row keeps 0.4
		_, err := inv.ApplyPayment(decimal.NewFromFloat(0.4), PaymentMethodCash, "", "", uuid.New())
		assertDomainCode(t, err, "VALIDATION_ERROR")
		assert.True(t, inv.AmountPaid.IsZero())
		assert.Equal(t, InvoiceStatusSent, inv.Status)

		// Fractional near-settlement would round amount_paid up to the total
		// while the stored payment stays 139699.6
		_, err = inv.ApplyPayment(decimal.NewFromFloat(139699.6), PaymentMethodCash, "", "", uuid.New())
		assertDomainCode(t, err, "VALIDATION_ERROR")
		assert.True(t, inv.AmountPaid.IsZero())
		assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(139700)))
		assert.Equal(t, InvoiceStatusSent, inv.Status)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.ApplyPayment(decimal.Zero, PaymentMethodCash, "", "", uuid.New())
		assertDomainCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("rejects fully paid invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))
		_, err := inv.ApplyPayment(decimal.NewFromInt(139700), PaymentMethodCash, "", "", uuid.New())
		require.NoError(t, err)

		_, err = inv.ApplyPayment(decimal.NewFromInt(1), PaymentMethodCash, "", "", uuid.New())
		assertDomainCode(t, err, "CONFLICT")
		assert.Contains(t, err.Error(), "fully paid")
	})

	t.Run("rejects voided invoice", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))
		admin := identity.Actor{UserID: uuid.New(), TenantID: inv.TenantID, Role: identity.RoleAdmin}
		_, err := inv.Void(admin, "")
		require.NoError(t, err)

		_, err = inv.ApplyPayment(decimal.NewFromInt(1000), PaymentMethodCash, "", "", uuid.New())
		assertDomainCode(t, err, "CONFLICT")
	})
}

func TestInvoiceReplace(t *testing.T) {
	t.Run("recomputes totals on a draft", func(t *testing.T) {
		inv := newTestInvoice(t)
		newPet := uuid.New()
		newOwner := uuid.New()

		err := inv.Replace(newPet, newOwner, []ItemDraft{draft(1, 80000, 0)},
			decimal.NewFromInt(10), nil, "updated")
		require.NoError(t, err)

		assert.Equal(t, newPet, inv.PetID)
		assert.Equal(t, newOwner, inv.OwnerID)
		require.Len(t, inv.Items, 1)
		assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(80000)))
		assert.True(t, inv.Total.Equal(decimal.NewFromInt(88000)))
		assert.True(t, inv.AmountDue.Equal(decimal.NewFromInt(88000)))
		assert.Equal(t, "updated", inv.Notes)
	})

	t.Run("rejected once sent", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))

		err := inv.Replace(inv.PetID, inv.OwnerID, []ItemDraft{draft(1, 80000, 0)},
			decimal.NewFromInt(10), nil, "")
		assertDomainCode(t, err, "CONFLICT")
	})

	t.Run("invalid items leave the invoice untouched", func(t *testing.T) {
		inv := newTestInvoice(t)
		before := inv.Total

		err := inv.Replace(inv.PetID, inv.OwnerID, []ItemDraft{draft(0, 80000, 0)},
			decimal.NewFromInt(10), nil, "")
		require.Error(t, err)
		assert.True(t, inv.Total.Equal(before))
		assert.Len(t, inv.Items, 2)
	})
}

func TestInvoiceVoid(t *testing.T) {
	vet := func(tenantID uuid.UUID) identity.Actor {
		return identity.Actor{UserID: uuid.New(), TenantID: tenantID, Role: identity.RoleVet}
	}
	admin := func(tenantID uuid.UUID) identity.Actor {
		return identity.Actor{UserID: uuid.New(), TenantID: tenantID, Role: identity.RoleAdmin}
	}

	t.Run("draft is hard-deleted", func(t *testing.T) {
		inv := newTestInvoice(t)
		hardDelete, err := inv.Void(vet(inv.TenantID), "")
		require.NoError(t, err)
		assert.True(t, hardDelete)
		assert.Equal(t, InvoiceStatusDraft, inv.Status)
	})

	t.Run("paid draft stays on record as void", func(t *testing.T) {
		inv := newTestInvoice(t)
		_, err := inv.ApplyPayment(decimal.NewFromInt(10000), PaymentMethodCash, "", "", uuid.New())
		require.NoError(t, err)

		hardDelete, err := inv.Void(admin(inv.TenantID), "")
		require.NoError(t, err)
		assert.False(t, hardDelete)
		assert.Equal(t, InvoiceStatusVoid, inv.Status)
	})

	t.Run("sent unpaid invoice voided by a vet", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))
		actor := vet(inv.TenantID)

		hardDelete, err := inv.Void(actor, "duplicado")
		require.NoError(t, err)
		assert.False(t, hardDelete)
		assert.Equal(t, InvoiceStatusVoid, inv.Status)
		require.NotNil(t, inv.VoidedAt)
		require.NotNil(t, inv.VoidedBy)
		assert.Equal(t, actor.UserID, *inv.VoidedBy)
		assert.True(t, strings.HasPrefix(inv.Notes, "[voided] duplicado"))
	})

	t.Run("void marker is prepended to existing notes", func(t *testing.T) {
		inv := newTestInvoice(t)
		inv.Notes = "control anual"
		require.NoError(t, inv.MarkSent(uuid.New()))

		_, err := inv.Void(vet(inv.TenantID), "")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(inv.Notes, "[voided]"))
		assert.Contains(t, inv.Notes, "control anual")
	})

	t.Run("partially paid invoice requires admin", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))
		_, err := inv.ApplyPayment(decimal.NewFromInt(50000), PaymentMethodCash, "", "", uuid.New())
		require.NoError(t, err)

		_, err = inv.Void(vet(inv.TenantID), "")
		assertDomainCode(t, err, "FORBIDDEN")

		hardDelete, err := inv.Void(admin(inv.TenantID), "error de carga")
		require.NoError(t, err)
		assert.False(t, hardDelete)
		assert.Equal(t, InvoiceStatusVoid, inv.Status)
		// Paid amount stays on record, no refund happens here
		assert.True(t, inv.AmountPaid.Equal(decimal.NewFromInt(50000)))
	})

	t.Run("already void is a conflict", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.MarkSent(uuid.New()))
		_, err := inv.Void(vet(inv.TenantID), "")
		require.NoError(t, err)

		_, err = inv.Void(vet(inv.TenantID), "")
		assertDomainCode(t, err, "CONFLICT")
	})

	t.Run("cancelled is a conflict", func(t *testing.T) {
		inv := newTestInvoice(t)
		require.NoError(t, inv.ChangeStatus(InvoiceStatusCancelled, uuid.New()))
		_, err := inv.Void(vet(inv.TenantID), "")
		assertDomainCode(t, err, "CONFLICT")
	})
}

func TestInvoiceIsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	inv := newTestInvoice(t)
	assert.False(t, inv.IsOverdue(now), "no due date")

	inv.DueDate = &past
	assert.True(t, inv.IsOverdue(now))

	inv.DueDate = &future
	assert.False(t, inv.IsOverdue(now))

	inv.DueDate = &past
	inv.Status = InvoiceStatusPaid
	assert.False(t, inv.IsOverdue(now), "terminal status never overdue")
}

func TestInvoiceBelongsTo(t *testing.T) {
	inv := newTestInvoice(t)

	staff := identity.Actor{UserID: uuid.New(), TenantID: inv.TenantID, Role: identity.RoleVet}
	assert.True(t, inv.BelongsTo(staff))

	owner := identity.Actor{UserID: inv.OwnerID, TenantID: inv.TenantID, Role: identity.RoleOwner}
	assert.True(t, inv.BelongsTo(owner))

	stranger := identity.Actor{UserID: uuid.New(), TenantID: inv.TenantID, Role: identity.RoleOwner}
	assert.False(t, inv.BelongsTo(stranger))

	otherTenant := identity.Actor{UserID: uuid.New(), TenantID: uuid.New(), Role: identity.RoleAdmin}
	assert.False(t, inv.BelongsTo(otherTenant))
}
