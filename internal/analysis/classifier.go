package analysis

import "strings"

// receiptKeywords is the vocabulary used to decide whether recognized text
// came from a purchase receipt. Matching is case-insensitive substring
// containment, counted once per keyword.
var receiptKeywords = []string{
	"total", "subtotal", "tax", "receipt", "invoice", "amount", "price",
	"item", "quantity", "store", "shop", "market", "grocery", "bill",
	"payment", "due", "balance", "cash", "card", "credit", "debit",
	"change", "discount", "sale", "purchase", "transaction", "order",
	"customer", "cashier", "register", "pos", "terminal", "checkout",
	"summary", "details", "line", "product", "service", "charge",
	"fee", "cost", "expense", "spend", "buy", "sold",
	"date", "time", "location", "address", "phone", "email",
}

// minKeywordMatches is the number of distinct vocabulary hits required to
// accept text as a receipt without the short-circuit pattern.
const minKeywordMatches = 3

// Classifier decides whether recognized text belongs to a purchase receipt.
// It is a pure function of its input and safe for concurrent use.
type Classifier struct{}

// NewClassifier creates a new Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// IsReceipt reports whether text looks like a purchase receipt. Text is
// accepted when at least three distinct vocabulary keywords occur in it,
// or when it contains "total" together with a dollar sign, "amount" or
// "price" (terse receipts often carry little else).
func (c *Classifier) IsReceipt(text string) bool {
	if text == "" {
		return false
	}

	lower := strings.ToLower(text)

	matches := 0
	for _, keyword := range receiptKeywords {
		if strings.Contains(lower, keyword) {
			matches++
			if matches >= minKeywordMatches {
				return true
			}
		}
	}

	if strings.Contains(lower, "total") &&
		(strings.Contains(lower, "$") || strings.Contains(lower, "amount") || strings.Contains(lower, "price")) {
		return true
	}

	return false
}
