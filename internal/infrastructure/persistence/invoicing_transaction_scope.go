package persistence

import (
	"context"

	"gorm.io/gorm"

	appinvoicing "github.com/vetclinic/backend/internal/application/invoicing"
	"github.com/vetclinic/backend/internal/domain/invoicing"
)

// GormTransactionScope implements the invoicing TransactionScope using GORM
// transactions. Row locks taken by the repositories inside Execute are held
// until the transaction commits or rolls back.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinvoicing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides the invoicing repositories bound to
// one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// InvoiceRepo returns the invoice repository scoped to the current transaction
func (r *gormTransactionalRepositories) InvoiceRepo() invoicing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction
func (r *gormTransactionalRepositories) PaymentRepo() invoicing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

var _ appinvoicing.TransactionScope = (*GormTransactionScope)(nil)
var _ appinvoicing.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
