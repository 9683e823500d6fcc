package invoicing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vetclinic/backend/internal/domain/shared"
	"github.com/vetclinic/backend/internal/domain/shared/valueobject"
)

// ItemDraft is the caller-supplied description of one invoice line before
// totals have been computed
type ItemDraft struct {
	ServiceID       *uuid.UUID
	ProductID       *uuid.UUID
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// Validate checks the draft against the line-item constraints
func (d ItemDraft) Validate() error {
	if d.Description == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Item description cannot be empty")
	}
	if !d.Quantity.IsPositive() {
		return shared.NewDomainError("VALIDATION_ERROR", "Item quantity must be positive")
	}
	if d.UnitPrice.IsNegative() {
		return shared.NewDomainError("VALIDATION_ERROR", "Item unit price cannot be negative")
	}
	if d.DiscountPercent.IsNegative() || d.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("VALIDATION_ERROR", "Item discount must be between 0 and 100")
	}
	return nil
}

// Totals holds the computed monetary summary of an invoice
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// LineTotal computes a single line's total, rounded to the currency's
// smallest unit: quantity × unit price × (1 − discount/100)
func LineTotal(d ItemDraft, currency valueobject.Currency) decimal.Decimal {
	price := valueobject.MustNewMoney(d.UnitPrice, currency)
	return price.Multiply(d.Quantity).ApplyDiscount(d.DiscountPercent).RoundCurrency().Amount()
}

// CalculateTotals validates the drafts and computes per-line totals plus the
// invoice summary. Each line total is rounded before summing; the subtotal is
// rounded before tax is applied, so the stored numbers always re-add exactly.
func CalculateTotals(drafts []ItemDraft, taxRate decimal.Decimal, currency valueobject.Currency) ([]decimal.Decimal, Totals, error) {
	if !currency.IsValid() {
		return nil, Totals{}, shared.NewDomainError("VALIDATION_ERROR", "Currency is not supported")
	}
	if len(drafts) == 0 {
		return nil, Totals{}, shared.NewDomainError("VALIDATION_ERROR", "Invoice must have at least one item")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, Totals{}, shared.NewDomainError("VALIDATION_ERROR", "Tax rate must be between 0 and 100")
	}

	lineTotals := make([]decimal.Decimal, 0, len(drafts))
	subtotal := valueobject.Zero(currency)
	for _, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, Totals{}, err
		}
		line := LineTotal(d, currency)
		lineTotals = append(lineTotals, line)
		subtotal = subtotal.MustAdd(valueobject.MustNewMoney(line, currency))
	}

	subtotal = subtotal.RoundCurrency()
	tax := subtotal.CalculatePercentage(taxRate).RoundCurrency()
	total := subtotal.MustAdd(tax).RoundCurrency()

	return lineTotals, Totals{
		Subtotal:  subtotal.Amount(),
		TaxAmount: tax.Amount(),
		Total:     total.Amount(),
	}, nil
}
