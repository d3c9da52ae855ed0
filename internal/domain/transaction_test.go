package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransaction_Equal(t *testing.T) {
	base := Transaction{
		Date:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Category: "Groceries",
		Amount:   decimal.RequireFromString("42.50"),
	}

	tests := []struct {
		name  string
		other Transaction
		want  bool
	}{
		{"identical", base, true},
		{
			"equivalent decimal representation",
			Transaction{Date: base.Date, Category: base.Category, Amount: decimal.RequireFromString("42.5")},
			true,
		},
		{
			"different category",
			Transaction{Date: base.Date, Category: "Dining", Amount: base.Amount},
			false,
		},
		{
			"different date",
			Transaction{Date: base.Date.Add(24 * time.Hour), Category: base.Category, Amount: base.Amount},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			// Key equality must agree with Equal.
			if got := base.Key() == tt.other.Key(); got != tt.want {
				t.Errorf("Key() match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Violations: []string{"a", "b"}}
	if err.Error() != "validation failed: a; b" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestPersistenceError_Unwrap(t *testing.T) {
	err := &PersistenceError{Stage: "snapshot", Err: ErrUnsupportedMode}
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Error("PersistenceError does not unwrap to its cause")
	}
}
