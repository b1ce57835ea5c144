package record

import "time"

// Receipt is the structured result of extracting one receipt photo.
// Amounts are stored in cents.
type Receipt struct {
	ID          string    `json:"id"`
	PhotoID     string    `json:"photo_id"`
	CapturedAt  time.Time `json:"captured_at"`
	Items       []Item    `json:"items"`
	TotalCents  int       `json:"total_cents"`
	Store       string    `json:"store,omitempty"`
	Date        string    `json:"date,omitempty"` // free-form, as extracted
	ArchivePath string    `json:"archive_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Item is one purchased line item, always owned by exactly one Receipt.
type Item struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
}

// PersonDetection is the person-match verdict recorded for one photo.
type PersonDetection struct {
	ID         string    `json:"id"`
	PhotoID    string    `json:"photo_id"`
	CapturedAt time.Time `json:"captured_at"`
	Matched    bool      `json:"matched"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Cents converts a dollar amount to whole cents.
func Cents(dollars float64) int {
	return int(dollars*100 + 0.5)
}

// Dollars converts cents back to a dollar amount for display.
func Dollars(cents int) float64 {
	return float64(cents) / 100
}
