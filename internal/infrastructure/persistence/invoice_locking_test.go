package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vetclinic/backend/internal/domain/invoicing"
)

// newMockInvoiceRepository creates a GormInvoiceRepository with a mocked SQL
// connection, for asserting the exact SQL of the locking and counter paths
func newMockInvoiceRepository(t *testing.T) (*GormInvoiceRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormInvoiceRepository(gormDB), mock, mockDB
}

// The payment path depends on the invoice row staying locked for the whole
// transaction; this pins the FOR UPDATE clause into the generated SQL.
func TestFindByIDForTenantLockedUsesRowLock(t *testing.T) {
	repo, mock, mockDB := newMockInvoiceRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	invoiceID := uuid.New()

	invoiceRows := sqlmock.NewRows([]string{
		"id", "tenant_id", "version", "invoice_number", "pet_id", "owner_id",
		"currency", "subtotal", "tax_rate", "tax_amount", "total",
		"amount_paid", "amount_due", "status",
	}).AddRow(
		invoiceID, tenantID, 1, "INV-20260831-00001", uuid.New(), uuid.New(),
		"PYG", "127000", "10", "12700", "139700",
		"0", "139700", "sent",
	)

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND id = \$2 .* FOR UPDATE`).
		WithArgs(tenantID, invoiceID, 1).
		WillReturnRows(invoiceRows)
	mock.ExpectQuery(`SELECT \* FROM "invoice_items" WHERE invoice_id = \$1`).
		WithArgs(invoiceID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_id", "description", "quantity", "unit_price", "discount_percent", "line_total"}).
			AddRow(uuid.New(), invoiceID, "Consulta", "1", "127000", "0", "127000"))

	inv, err := repo.FindByIDForTenantLocked(context.Background(), tenantID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, invoicing.InvoiceStatusSent, inv.Status)
	require.Len(t, inv.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The number generator must increment inside the database, never read-then-write.
func TestNextInvoiceNumberUsesAtomicUpsert(t *testing.T) {
	repo, mock, mockDB := newMockInvoiceRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	day := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO invoice_counters .* ON CONFLICT \(tenant_id, date_key\).* DO UPDATE SET counter = invoice_counters\.counter \+ 1.*RETURNING counter`).
		WithArgs(tenantID, "20260831").
		WillReturnRows(sqlmock.NewRows([]string{"counter"}).AddRow(42))

	number, err := repo.NextInvoiceNumber(context.Background(), tenantID, day)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260831-00042", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateHeaderOptimisticWhereClause(t *testing.T) {
	repo, mock, mockDB := newMockInvoiceRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	inv, err := invoicing.NewInvoice(
		tenantID, "INV-20260831-00001", uuid.New(), uuid.New(), "PYG",
		[]invoicing.ItemDraft{{Description: "Consulta", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1000)}},
		decimal.NewFromInt(10), nil, "", uuid.New(),
	)
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE "invoices" SET .* WHERE id = \$\d+ AND tenant_id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateHeader(context.Background(), inv))
	assert.Equal(t, 2, inv.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
