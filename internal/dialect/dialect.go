// Package dialect classifies CSV statement exports into a closed set of known
// bank layouts. Detection is total: any header resolves to exactly one
// dialect, falling back to generic rather than erroring, so that extraction
// proceeds even for layouts we have never seen.
package dialect

import (
	"strings"

	"github.com/banktocfo/banktocfo/internal/domain"
)

// Mapping describes how a dialect's columns map onto the canonical
// transaction fields. Columns are referenced by normalized header name.
// When Debit and Credit are set instead of Amount, the two columns are merged
// into one signed amount with debits negative.
type Mapping struct {
	Date        string
	Description string
	// Fallback description columns, tried in order when Description is
	// missing or blank for a row.
	DescriptionAlt []string
	Amount         string
	Debit          string
	Credit         string
	Balance        string
	DateFormats    []string
}

// fingerprint is the set of normalized header names that must all be present
// for a dialect to match.
type fingerprint struct {
	dialect  domain.Dialect
	required []string
	mapping  Mapping
}

var commonDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"02 Jan 2006",
}

// fingerprints are checked in order; the first one whose required columns are
// all present wins. Order is significant: wellsfargo (date+amount) would
// otherwise shadow generic, and generic would shadow nothing.
var fingerprints = []fingerprint{
	{
		dialect:  domain.DialectChase,
		required: []string{"posting date", "description"},
		mapping: Mapping{
			Date:        "posting date",
			Description: "description",
			Amount:      "amount",
			Balance:     "balance",
			DateFormats: commonDateFormats,
		},
	},
	{
		dialect:  domain.DialectBofA,
		required: []string{"posted date", "payee"},
		mapping: Mapping{
			Date:        "posted date",
			Description: "payee",
			Amount:      "amount",
			DateFormats: commonDateFormats,
		},
	},
	{
		dialect:  domain.DialectTDBank,
		required: []string{"date", "debit", "credit"},
		mapping: Mapping{
			Date:           "date",
			Description:    "description",
			DescriptionAlt: []string{"merchant name", "transaction type"},
			Debit:          "debit",
			Credit:         "credit",
			Balance:        "balance",
			DateFormats:    commonDateFormats,
		},
	},
	{
		dialect:  domain.DialectWellsFargo,
		required: []string{"date", "amount"},
		mapping: Mapping{
			Date:           "date",
			Description:    "description",
			DescriptionAlt: []string{"memo"},
			Amount:         "amount",
			Balance:        "balance",
			DateFormats:    commonDateFormats,
		},
	},
}

var genericMapping = Mapping{
	Date:           "date",
	Description:    "description",
	DescriptionAlt: []string{"memo", "payee", "details"},
	Amount:         "amount",
	Balance:        "balance",
	DateFormats:    commonDateFormats,
}

// Normalize lowercases and trims a header cell for fingerprint comparison.
func Normalize(header string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
}

// Detect classifies a CSV header row. It never fails: unrecognized layouts
// resolve to generic.
func Detect(header []string) (domain.Dialect, Mapping) {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[Normalize(h)] = true
	}

	for _, fp := range fingerprints {
		matched := true
		for _, col := range fp.required {
			if !present[col] {
				matched = false
				break
			}
		}
		if matched {
			return fp.dialect, fp.mapping
		}
	}
	return domain.DialectGeneric, genericMapping
}
