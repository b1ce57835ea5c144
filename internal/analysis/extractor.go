package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

// ReceiptData contains the fields extracted from receipt text.
type ReceiptData struct {
	Store string
	Date  string
	Total float64
	Tax   float64
	Items []Item
}

// Item is a single purchased line item.
type Item struct {
	Name      string
	Quantity  int
	UnitPrice float64
}

const unknownStore = "Unknown Store"

// storeScanLines is how many leading non-empty lines are considered when
// guessing the store name.
const storeScanLines = 10

var (
	moneyPattern = regexp.MustCompile(`\$?([0-9]+[.,]?[0-9]*)`)
	datePattern  = regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	itemPattern  = regexp.MustCompile(`^(.+?)\s+\$?([0-9]+[.,]?[0-9]*)$`)
)

// headerWords disqualify a line from being the store name.
var headerWords = []string{"receipt", "invoice", "total", "tax", "subtotal", "date", "time"}

// Extractor parses recognized receipt text into structured data. It never
// fails: missing or unparsable fields fall back to defaults, so it is
// only worth calling on text a Classifier has already accepted.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract parses text into receipt fields, line by line.
func (e *Extractor) Extract(text string) ReceiptData {
	lines := strings.Split(text, "\n")

	data := ReceiptData{Store: storeName(lines)}

	var subtotal float64
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		hasTotal := strings.Contains(lower, "total") && !strings.Contains(lower, "subtotal")
		hasSubtotal := strings.Contains(lower, "subtotal")
		hasTax := strings.Contains(lower, "tax")

		// Amount lines overwrite earlier matches: receipts often repeat
		// "TOTAL" and the final occurrence is the authoritative one.
		if hasTotal {
			if m := moneyPattern.FindStringSubmatch(trimmed); m != nil {
				data.Total = parseMoney(m[1])
			}
		}
		if hasSubtotal {
			if m := moneyPattern.FindStringSubmatch(trimmed); m != nil {
				subtotal = parseMoney(m[1])
			}
		}
		if hasTax {
			if m := moneyPattern.FindStringSubmatch(trimmed); m != nil {
				data.Tax = parseMoney(m[1])
			}
		}

		if strings.Contains(lower, "date") || strings.Contains(lower, "time") {
			if m := datePattern.FindStringSubmatch(trimmed); m != nil {
				data.Date = m[1]
			}
		}

		if hasTotal || hasSubtotal || hasTax {
			continue
		}

		if m := itemPattern.FindStringSubmatch(trimmed); m != nil {
			name := strings.TrimSpace(m[1])
			price := parseMoney(m[2])
			if len(name) > 2 && price > 0 {
				data.Items = append(data.Items, Item{Name: name, Quantity: 1, UnitPrice: price})
			}
		}
	}

	if data.Total == 0 {
		if subtotal > 0 {
			data.Total = subtotal
		} else {
			for _, item := range data.Items {
				data.Total += item.UnitPrice * float64(item.Quantity)
			}
		}
	}

	// Every accepted receipt carries at least one line item, but only when
	// there is a positive total to pin it to.
	if len(data.Items) == 0 && data.Total > 0 {
		data.Items = []Item{{Name: "Receipt Total", Quantity: 1, UnitPrice: data.Total}}
	}

	return data
}

// storeName picks the first of the leading non-empty lines that does not
// look like a receipt header.
func storeName(lines []string) string {
	seen := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		seen++
		if seen > storeScanLines {
			break
		}

		lower := strings.ToLower(trimmed)
		header := false
		for _, word := range headerWords {
			if strings.Contains(lower, word) {
				header = true
				break
			}
		}
		if !header {
			return trimmed
		}
	}
	return unknownStore
}

// parseMoney parses a monetary token, stripping thousands separators.
// Unparsable tokens yield 0 rather than an error.
func parseMoney(token string) float64 {
	token = strings.ReplaceAll(token, ",", "")
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return value
}
