// Package report derives the summary views of a categorized statement and
// renders them into the exportable workbook.
package report

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/banktocfo/banktocfo/internal/domain"
)

// MonthlySummary is the cash-flow total for one calendar month. Derived,
// recomputed per job, never mutated in place.
type MonthlySummary struct {
	Month   string // year-month key, e.g. "2024-01"
	Inflow  decimal.Decimal
	Outflow decimal.Decimal // absolute value of money out
	Net     decimal.Decimal
}

// CategoryTotal aggregates one category across the statement period.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Count    int
	// PctOfExpenses is the share of total outflow for expense categories,
	// zero for net-positive ones.
	PctOfExpenses decimal.Decimal
}

// Summary holds every derived view the report builder needs.
type Summary struct {
	Monthly    []MonthlySummary // sorted chronologically
	Categories []CategoryTotal  // sorted by absolute amount, descending

	TotalInflow  decimal.Decimal
	TotalOutflow decimal.Decimal
	Net          decimal.Decimal

	Start            civil.Date
	End              civil.Date
	Months           int
	TransactionCount int
}

// Aggregate computes monthly summaries and the category breakdown. Grouping
// is by month key derived from the date; inflow sums positive amounts,
// outflow the absolute value of negative ones. Single-month and multi-month
// datasets take the same path.
func Aggregate(txs []domain.CategorizedTransaction) *Summary {
	s := &Summary{TransactionCount: len(txs)}
	if len(txs) == 0 {
		return s
	}

	months := make(map[string]*MonthlySummary)
	cats := make(map[string]*CategoryTotal)

	s.Start = txs[0].Date
	s.End = txs[0].Date

	for _, tx := range txs {
		if tx.Date.Before(s.Start) {
			s.Start = tx.Date
		}
		if tx.Date.After(s.End) {
			s.End = tx.Date
		}

		key := tx.MonthKey()
		m, ok := months[key]
		if !ok {
			m = &MonthlySummary{Month: key}
			months[key] = m
		}

		if tx.Amount.IsPositive() {
			m.Inflow = m.Inflow.Add(tx.Amount)
			s.TotalInflow = s.TotalInflow.Add(tx.Amount)
		} else {
			m.Outflow = m.Outflow.Add(tx.Amount.Abs())
			s.TotalOutflow = s.TotalOutflow.Add(tx.Amount.Abs())
		}

		c, ok := cats[tx.Category]
		if !ok {
			c = &CategoryTotal{Category: tx.Category}
			cats[tx.Category] = c
		}
		c.Amount = c.Amount.Add(tx.Amount)
		c.Count++
	}

	s.Net = s.TotalInflow.Sub(s.TotalOutflow)

	for _, m := range months {
		m.Net = m.Inflow.Sub(m.Outflow)
		s.Monthly = append(s.Monthly, *m)
	}
	// Month keys are zero-padded, so lexical order is chronological.
	sort.Slice(s.Monthly, func(a, b int) bool {
		return s.Monthly[a].Month < s.Monthly[b].Month
	})
	s.Months = len(s.Monthly)

	hundred := decimal.NewFromInt(100)
	for _, c := range cats {
		if c.Amount.IsNegative() && s.TotalOutflow.IsPositive() {
			c.PctOfExpenses = c.Amount.Abs().Div(s.TotalOutflow).Mul(hundred).Round(1)
		}
		s.Categories = append(s.Categories, *c)
	}
	sort.Slice(s.Categories, func(a, b int) bool {
		aa, bb := s.Categories[a].Amount.Abs(), s.Categories[b].Amount.Abs()
		if !aa.Equal(bb) {
			return aa.GreaterThan(bb)
		}
		return s.Categories[a].Category < s.Categories[b].Category
	})

	return s
}
