package ingest

import (
	"fmt"
	"sort"
	"strings"
)

// requiredColumns is the column contract for the ingestion path. The
// serving side only needs date and amount, but nothing is persisted here
// without a category column.
var requiredColumns = []string{"date", "category", "amount"}

// Validate checks a raw batch against the column contract and per-column
// type constraints. All checks run regardless of earlier failures so the
// caller sees every problem at once. Validate never writes anything and
// never fails; the verdict plus the ordered violation list is the entire
// result.
func Validate(b RawBatch) (bool, []string) {
	var violations []string

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := b.Column(col); !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		violations = append(violations, fmt.Sprintf("missing required columns: [%s]", strings.Join(missing, " ")))
	}

	if len(b.Rows) == 0 {
		violations = append(violations, "no data found in CSV file")
	}

	if idx, ok := b.Column("amount"); ok {
		hasNull := false
		hasInvalid := false
		for _, row := range b.Rows {
			if idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
				hasNull = true
				continue
			}
			if _, err := parseAmount(row[idx]); err != nil {
				hasInvalid = true
			}
		}
		if hasNull {
			violations = append(violations, "found null values in amount column")
		}
		if hasInvalid {
			violations = append(violations, "invalid numeric values found in amount column")
		}
	}

	if idx, ok := b.Column("date"); ok {
		hasInvalid := false
		for _, row := range b.Rows {
			if idx >= len(row) {
				hasInvalid = true
				continue
			}
			if _, err := parseDate(row[idx]); err != nil {
				hasInvalid = true
			}
		}
		if hasInvalid {
			violations = append(violations, "invalid date format found in date column")
		}
	}

	return len(violations) == 0, violations
}
