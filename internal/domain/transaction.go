package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Dialect identifies the source layout a transaction was extracted from.
type Dialect string

const (
	// DialectChase is the Chase checking CSV export (Posting Date / Description / Amount).
	DialectChase Dialect = "chase"
	// DialectBofA is the Bank of America CSV export (Posted Date / Payee / Amount).
	DialectBofA Dialect = "bofa"
	// DialectWellsFargo is the Wells Fargo CSV export (Date / Amount, description optional).
	DialectWellsFargo Dialect = "wellsfargo"
	// DialectTDBank is the TD Bank CSV export with separate Debit and Credit columns.
	DialectTDBank Dialect = "tdbank"
	// DialectGeneric is the fallback Date / Description / Amount layout.
	DialectGeneric Dialect = "generic"
	// DialectVision marks transactions recovered from statement images by the
	// vision model rather than a CSV parser.
	DialectVision Dialect = "vision"
)

// Transaction is the canonical record every parser converges to, independent
// of source dialect or extraction method.
type Transaction struct {
	Date        civil.Date
	Description string
	Amount      decimal.Decimal // signed; money out is negative
	Balance     *decimal.Decimal
	Source      Dialect
}

// Type reports the conventional Debit/Credit label derived from the sign.
func (t Transaction) Type() string {
	if t.Amount.IsNegative() {
		return "Debit"
	}
	return "Credit"
}

// MonthKey returns the year-month grouping key, e.g. "2024-01".
func (t Transaction) MonthKey() string {
	return t.Date.String()[:7]
}

// CategorizedTransaction is a Transaction with its resolved category label.
type CategorizedTransaction struct {
	Transaction
	Category string
}
