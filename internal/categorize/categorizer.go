package categorize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/banktocfo/banktocfo/internal/domain"
)

var (
	// Prefixes banks prepend to the actual merchant name.
	txPrefixRe = regexp.MustCompile(`(debit card purchase|pos debit|recurring deb card purch|ach withdrawal|ach dep|payment receipt credit|wire transfer credit)`)
	// 6-10 digit transaction/authorization codes embedded in descriptions.
	txCodeRe     = regexp.MustCompile(`\b\d{6,10}\b`)
	asteriskRe   = regexp.MustCompile(`\*+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanDescription lowercases a raw statement description and strips
// transaction prefixes, embedded codes, and asterisks so that keyword rules
// match the merchant name itself.
//
// "DEBIT CARD PURCHASE 121424 5811121424 CHIPOTLE" -> "chipotle"
func CleanDescription(description string) string {
	desc := strings.ToLower(description)
	desc = txPrefixRe.ReplaceAllString(desc, "")
	desc = txCodeRe.ReplaceAllString(desc, "")
	desc = asteriskRe.ReplaceAllString(desc, "")
	desc = whitespaceRe.ReplaceAllString(desc, " ")
	return strings.TrimSpace(desc)
}

// Categorizer evaluates an immutable, ordered rule list. Categorization is a
// pure function of (transaction, rules): deterministic and idempotent.
type Categorizer struct {
	rules          []Rule
	amountFallback bool
}

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithAmountFallback replaces the plain Uncategorized fallback with
// sign-based tiers: unmatched credits become "Income", small unmatched
// debits "Small Expense", the rest "Other Expense".
func WithAmountFallback() Option {
	return func(c *Categorizer) { c.amountFallback = true }
}

// New creates a Categorizer over the given rules. The rule slice is copied;
// rule order is significant and first match wins.
func New(rules []Rule, opts ...Option) *Categorizer {
	c := &Categorizer{rules: append([]Rule(nil), rules...)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// smallExpenseLimit is the absolute amount under which an unmatched debit is
// not worth its own category.
var smallExpenseLimit = decimal.NewFromInt(5)

// Categorize resolves the category label for one transaction. Rules are
// checked in order against both the cleaned and the raw lowercased
// description; the first keyword hit wins.
func (c *Categorizer) Categorize(tx domain.Transaction) string {
	cleaned := CleanDescription(tx.Description)
	raw := strings.ToLower(tx.Description)

	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(cleaned, kw) || strings.Contains(raw, kw) {
				return rule.Category
			}
		}
	}

	if c.amountFallback {
		switch {
		case tx.Amount.IsPositive():
			return "Income"
		case tx.Amount.Abs().LessThan(smallExpenseLimit):
			return "Small Expense"
		default:
			return "Other Expense"
		}
	}
	return Uncategorized
}

// Apply categorizes a whole statement, preserving order.
func (c *Categorizer) Apply(txs []domain.Transaction) []domain.CategorizedTransaction {
	out := make([]domain.CategorizedTransaction, len(txs))
	for i, tx := range txs {
		out[i] = domain.CategorizedTransaction{
			Transaction: tx,
			Category:    c.Categorize(tx),
		}
	}
	return out
}
