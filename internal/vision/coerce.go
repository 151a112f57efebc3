package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/banktocfo/banktocfo/internal/domain"
)

// coerceTransactions validates and converts the model's JSON array into
// canonical transactions. Rows failing validation are discarded and counted
// rather than aborting the whole page; only a response that is not a JSON
// array at all is an error.
func coerceTransactions(raw string) ([]domain.Transaction, int, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var items []map[string]interface{}
	if err := dec.Decode(&items); err != nil {
		return nil, 0, fmt.Errorf("vision: response is not a JSON array: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(items))
	dropped := 0
	for _, obj := range items {
		tx, err := coerceRow(obj)
		if err != nil {
			dropped++
			continue
		}
		txs = append(txs, tx)
	}
	return txs, dropped, nil
}

func coerceRow(obj map[string]interface{}) (domain.Transaction, error) {
	dateStr, err := getStringField(obj, "date", true)
	if err != nil {
		return domain.Transaction{}, err
	}
	date, err := civil.ParseDate(dateStr)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}

	desc, err := getStringField(obj, "description", true)
	if err != nil {
		return domain.Transaction{}, err
	}

	amount, err := getDecimalField(obj, "amount", true)
	if err != nil {
		return domain.Transaction{}, err
	}

	tx := domain.Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Source:      domain.DialectVision,
	}

	if bal, ok := obj["balance"]; ok && bal != nil {
		b, err := getDecimalField(obj, "balance", false)
		if err != nil {
			return domain.Transaction{}, err
		}
		tx.Balance = &b
	}

	return tx, nil
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	s = strings.TrimSpace(s)
	if required && s == "" {
		return "", fmt.Errorf("required field %q is empty", key)
	}
	return s, nil
}

func getDecimalField(m map[string]interface{}, key string, required bool) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return decimal.Zero, fmt.Errorf("missing required field %q", key)
		}
		return decimal.Zero, nil
	}
	switch val := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q is not a valid number: %w", key, err)
		}
		return d, nil
	case string:
		// Models occasionally quote amounts; accept them after trimming.
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, fmt.Errorf("field %q is not a valid number: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}
