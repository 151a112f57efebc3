package vision

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCoerceTransactions(t *testing.T) {
	raw := `[
		{"date": "2024-01-15", "description": "STARBUCKS", "amount": -4.50, "balance": 995.50},
		{"date": "2024-01-16", "description": "PAYROLL", "amount": 2000.00}
	]`

	txs, dropped, err := coerceTransactions(raw)
	if err != nil {
		t.Fatalf("coerceTransactions failed: %v", err)
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}

	if txs[0].Date.String() != "2024-01-15" {
		t.Errorf("Date = %s", txs[0].Date)
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("-4.50")) {
		t.Errorf("Amount = %s, want -4.50", txs[0].Amount)
	}
	if txs[0].Balance == nil || !txs[0].Balance.Equal(decimal.RequireFromString("995.50")) {
		t.Errorf("Balance = %v, want 995.50", txs[0].Balance)
	}
	if txs[1].Balance != nil {
		t.Errorf("Balance = %v, want nil", txs[1].Balance)
	}
}

func TestCoerceTransactions_DropsInvalidRows(t *testing.T) {
	raw := `[
		{"date": "2024-01-15", "description": "GOOD", "amount": -1.00},
		{"date": "not-a-date", "description": "BAD DATE", "amount": -2.00},
		{"description": "NO DATE", "amount": -3.00},
		{"date": "2024-01-16", "description": "", "amount": -4.00},
		{"date": "2024-01-17", "description": "NO AMOUNT"},
		{"date": "2024-01-18", "description": "BAD AMOUNT", "amount": "lots"},
		{"date": "2024-01-19", "description": "ALSO GOOD", "amount": "5.25"}
	]`

	txs, dropped, err := coerceTransactions(raw)
	if err != nil {
		t.Fatalf("coerceTransactions failed: %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("got %d transactions, want 2", len(txs))
	}
	if dropped != 5 {
		t.Errorf("dropped = %d, want 5", dropped)
	}

	// Quoted numeric amounts are accepted.
	if !txs[1].Amount.Equal(decimal.RequireFromString("5.25")) {
		t.Errorf("Amount = %s, want 5.25", txs[1].Amount)
	}
}

func TestCoerceTransactions_NotAnArray(t *testing.T) {
	for _, raw := range []string{`{"date": "2024-01-01"}`, `"hello"`, ``, `I could not read the page`} {
		if _, _, err := coerceTransactions(raw); err == nil {
			t.Errorf("coerceTransactions(%q) = nil error, want error", raw)
		}
	}
}

func TestCoerceTransactions_EmptyArray(t *testing.T) {
	txs, dropped, err := coerceTransactions(`[]`)
	if err != nil {
		t.Fatalf("coerceTransactions failed: %v", err)
	}
	if len(txs) != 0 || dropped != 0 {
		t.Errorf("got %d transactions and %d dropped, want 0 and 0", len(txs), dropped)
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already clean",
			in:   `[{"a":1}]`,
			want: `[{"a":1}]`,
		},
		{
			name: "json fence",
			in:   "```json\n[{\"a\":1}]\n```",
			want: `[{"a":1}]`,
		},
		{
			name: "bare fence",
			in:   "```\n[{\"a\":1}]\n```",
			want: `[{"a":1}]`,
		},
		{
			name: "prose around array",
			in:   "Here are the transactions:\n[{\"a\":1}]\nLet me know if you need more.",
			want: `[{"a":1}]`,
		},
		{
			name: "whitespace",
			in:   "  \n [{\"a\":1}] \n ",
			want: `[{"a":1}]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
