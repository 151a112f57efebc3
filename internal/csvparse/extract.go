// Package csvparse turns raw CSV statement rows into canonical transactions
// using the column mapping of the detected dialect. Malformed rows are
// skipped and counted, never fatal; empty input yields an empty result.
package csvparse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/banktocfo/banktocfo/internal/dialect"
	"github.com/banktocfo/banktocfo/internal/domain"
)

// Result carries the extracted transactions plus side observations about the
// parse. Transactions keep source row order.
type Result struct {
	Transactions []domain.Transaction
	Dialect      domain.Dialect
	SkippedRows  int
}

// Extract parses a whole CSV statement. The first row is treated as the
// header and drives dialect detection.
func Extract(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Result{Dialect: domain.DialectGeneric}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csvparse: reading header: %w", err)
	}

	tag, mapping := dialect.Detect(header)

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[dialect.Normalize(h)] = i
	}

	res := &Result{Dialect: tag}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A row the csv reader itself rejects counts as skipped.
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.SkippedRows++
				continue
			}
			return nil, fmt.Errorf("csvparse: reading row: %w", err)
		}

		tx, ok := parseRow(rec, cols, mapping, tag)
		if !ok {
			res.SkippedRows++
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}

	return res, nil
}

func parseRow(rec []string, cols map[string]int, m dialect.Mapping, tag domain.Dialect) (domain.Transaction, bool) {
	date, ok := parseDate(field(rec, cols, m.Date), m.DateFormats)
	if !ok {
		return domain.Transaction{}, false
	}

	amount, ok := parseAmount(rec, cols, m)
	if !ok {
		return domain.Transaction{}, false
	}

	desc := strings.TrimSpace(field(rec, cols, m.Description))
	for _, alt := range m.DescriptionAlt {
		if desc != "" {
			break
		}
		desc = strings.TrimSpace(field(rec, cols, alt))
	}
	if desc == "" {
		// Never emit an empty description; fall back to the raw row text.
		desc = strings.TrimSpace(strings.Join(rec, " "))
	}

	tx := domain.Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Source:      tag,
	}

	if bal, ok := parseDecimal(field(rec, cols, m.Balance)); ok {
		tx.Balance = &bal
	}

	return tx, true
}

// parseAmount resolves the signed amount, merging separate debit/credit
// columns into one value with debits negative.
func parseAmount(rec []string, cols map[string]int, m dialect.Mapping) (decimal.Decimal, bool) {
	if m.Amount != "" {
		if amt, ok := parseDecimal(field(rec, cols, m.Amount)); ok {
			return amt, true
		}
	}
	if m.Debit == "" && m.Credit == "" {
		return decimal.Zero, false
	}

	if debit, ok := parseDecimal(field(rec, cols, m.Debit)); ok && !debit.IsZero() {
		return debit.Abs().Neg(), true
	}
	if credit, ok := parseDecimal(field(rec, cols, m.Credit)); ok {
		return credit.Abs(), true
	}
	return decimal.Zero, false
}

func field(rec []string, cols map[string]int, name string) string {
	if name == "" {
		return ""
	}
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func parseDate(s string, formats []string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, false
	}
	if d, err := civil.ParseDate(s); err == nil {
		return d, true
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// parseDecimal handles the usual statement decorations: currency symbols,
// thousands separators, and accounting-style parentheses for negatives.
func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", "£", "", "€", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}
