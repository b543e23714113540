// Package classifier decides whether extracted document text looks like an
// invoice or bill before any AI call is made.
package classifier

import (
	"regexp"
	"strings"
)

var keywords = []string{
	"invoice",
	"bill",
	"billing",
	"statement",
	"receipt",
	"payment due",
	"amount due",
	"total amount",
	"subtotal",
	"tax",
	"vendor",
	"supplier",
	"invoice number",
	"invoice date",
	"due date",
	"item",
	"quantity",
	"unit price",
	"line item",
	"charge",
	"fee",
	"service",
	"product",
	"description",
	"account number",
	"invoice #",
	"bill to",
	"ship to",
}

var (
	currencyPattern = regexp.MustCompile(`[$€£¥₹]\s*\d+|\d+\s*[$€£¥₹]`)
	amountPattern   = regexp.MustCompile(`(?i)(total|amount|sum|subtotal).*?\d+`)
)

// Score is the evidence gathered from one piece of text.
type Score struct {
	KeywordHits int
	Currency    bool
	Amount      bool
}

// Invoice applies the decision rule: three keyword hits, or two hits backed
// by a currency or amount pattern.
func (s Score) Invoice() bool {
	if s.KeywordHits >= 3 {
		return true
	}
	return s.KeywordHits >= 2 && (s.Currency || s.Amount)
}

// Evaluate counts distinct keyword matches in the lower-cased text and checks
// both patterns against the text as given.
func Evaluate(text string) Score {
	normalized := strings.ToLower(text)

	var score Score
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			score.KeywordHits++
		}
	}
	score.Currency = currencyPattern.MatchString(text)
	score.Amount = amountPattern.MatchString(text)

	return score
}

func IsInvoiceLike(text string) bool {
	return Evaluate(text).Invoice()
}
