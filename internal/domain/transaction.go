package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents one normalized financial event. This is a domain
// struct, not a storage row; the snapshot writer and the mirror store each
// map it into their own schema.
type Transaction struct {
	Date     time.Time       // parsed from "date"
	Category string          // from "category", whitespace-trimmed
	Amount   decimal.Decimal // from "amount", exact decimal
}

// Equal reports row-wise structural equality across all columns. Used by
// duplicate removal; two rows are duplicates only if every column matches.
func (t Transaction) Equal(o Transaction) bool {
	return t.Date.Equal(o.Date) && t.Category == o.Category && t.Amount.Equal(o.Amount)
}

// Key returns a canonical string identity for duplicate detection.
// Amount is rendered in exact form so 10.5 and 10.50 collapse together.
func (t Transaction) Key() string {
	return t.Date.UTC().Format(time.RFC3339Nano) + "\x1f" + t.Category + "\x1f" + t.Amount.String()
}
