package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are the timestamp formats accepted in the date column, tried
// in order. The first layouts carry time-of-day; the rest are date-only.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// parseDate coerces a raw date value to a canonical UTC timestamp.
func parseDate(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, fmt.Errorf("parseDate: empty value")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parseDate: unrecognized date %q", v)
}

// parseAmount coerces a raw amount value to an exact decimal.
func parseAmount(raw string) (decimal.Decimal, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return decimal.Decimal{}, fmt.Errorf("parseAmount: empty value")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parseAmount: invalid amount %q: %w", v, err)
	}
	return d, nil
}
