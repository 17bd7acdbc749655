package testutil

import (
	"errors"
	"testing"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q (HTTP %d), got %q (message: %s)", expectedCode, appErr.StatusCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAmount compares two amounts by value, so 10 and 10.00 are equal.
func AssertAmount(t *testing.T, what string, want, got decimal.Decimal) {
	t.Helper()

	if !got.Equal(want) {
		t.Errorf("expected %s %s, got %s", what, want.StringFixed(2), got.StringFixed(2))
	}
}

// AssertCardConsistent checks that the limit used on cardID equals the sum of
// the transactions currently counting against it, and that every invoice
// total equals the sum of its counting transactions.
func AssertCardConsistent(t *testing.T, db *gorm.DB, cardID string) {
	t.Helper()

	card := Reload[models.CreditCard](t, db, cardID)

	var invoices []models.Invoice
	if err := db.Where("credit_card_id = ?", cardID).Find(&invoices).Error; err != nil {
		t.Fatalf("failed to load invoices: %v", err)
	}

	used := decimal.Zero
	for _, invoice := range invoices {
		var charges []models.Transaction
		err := db.Where("invoice_id = ? AND participates_in_invoice_limit = ?", invoice.ID, true).Find(&charges).Error
		if err != nil {
			t.Fatalf("failed to load charges: %v", err)
		}
		total := decimal.Zero
		for _, c := range charges {
			total = total.Add(c.Amount)
		}
		if !invoice.IsPaid() {
			AssertAmount(t, "invoice "+invoice.BillingMonth+" total", total, invoice.AccumulatedCharges)
			used = used.Add(total)
		}
	}
	AssertAmount(t, "limit used", used, card.CreditLimit.Sub(card.AvailableLimit))
}
