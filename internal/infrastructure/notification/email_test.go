package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetclinic/backend/internal/domain/directory"
	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/domain/shared/valueobject"
	"github.com/vetclinic/backend/internal/infrastructure/config"
)

func newEmailTestInvoice(t *testing.T) *invoicing.Invoice {
	t.Helper()
	inv, err := invoicing.NewInvoice(
		uuid.New(), "INV-20260831-00007", uuid.New(), uuid.New(), valueobject.PYG,
		[]invoicing.ItemDraft{
			{Description: "Consulta <general>", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50000)},
		},
		decimal.NewFromInt(10), nil, "", uuid.New(),
	)
	require.NoError(t, err)
	return inv
}

func TestRenderInvoiceEmail(t *testing.T) {
	inv := newEmailTestInvoice(t)
	owner := &directory.Owner{FullName: "María González", Email: "maria@example.com"}

	body := renderInvoiceEmail(inv, owner, "Gracias por su visita")

	assert.Contains(t, body, "María González")
	assert.Contains(t, body, "INV-20260831-00007")
	assert.Contains(t, body, "110000")
	assert.Contains(t, body, "Gracias por su visita")
	// Item descriptions are user input and must be escaped
	assert.Contains(t, body, "Consulta &lt;general&gt;")
	assert.NotContains(t, body, "Consulta <general>")
}

func TestNotifyInvoiceSentSkipsOwnersWithoutEmail(t *testing.T) {
	notifier := NewEmailNotifier(config.SMTPConfig{Host: "localhost", Port: 2525, From: "facturacion@vetclinic.local"})
	inv := newEmailTestInvoice(t)
	owner := &directory.Owner{FullName: "Sin Correo"}

	// Must not attempt an SMTP connection
	err := notifier.NotifyInvoiceSent(context.Background(), inv, owner, "")
	assert.NoError(t, err)
}
