package ingest

import (
	"fmt"
	"strings"

	"github.com/mkorolev/finance-forecaster/internal/domain"
)

// Clean coerces a validated raw batch into normalized transactions and
// removes exact-duplicate rows, preserving first occurrence order. It
// returns the number of duplicates removed for observability.
//
// The steps are order-sensitive: dates and amounts are coerced first, the
// category is trimmed, and only then are rows compared for duplicates, so
// "10.5" and "10.50" (or " Food" and "Food") collapse together.
//
// Input is assumed to have passed Validate; a coercion failure here means
// the caller skipped validation.
func Clean(b RawBatch) ([]domain.Transaction, int, error) {
	dateIdx, ok := b.Column("date")
	if !ok {
		return nil, 0, fmt.Errorf("Clean: missing date column")
	}
	catIdx, ok := b.Column("category")
	if !ok {
		return nil, 0, fmt.Errorf("Clean: missing category column")
	}
	amtIdx, ok := b.Column("amount")
	if !ok {
		return nil, 0, fmt.Errorf("Clean: missing amount column")
	}

	cleaned := make([]domain.Transaction, 0, len(b.Rows))
	seen := make(map[string]struct{}, len(b.Rows))
	removed := 0

	for i, row := range b.Rows {
		date, err := parseDate(row[dateIdx])
		if err != nil {
			return nil, 0, fmt.Errorf("Clean: row %d: %w", i, err)
		}
		amount, err := parseAmount(row[amtIdx])
		if err != nil {
			return nil, 0, fmt.Errorf("Clean: row %d: %w", i, err)
		}

		tx := domain.Transaction{
			Date:     date,
			Category: strings.TrimSpace(row[catIdx]),
			Amount:   amount,
		}

		key := tx.Key()
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, tx)
	}

	return cleaned, removed, nil
}
