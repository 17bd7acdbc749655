package services

import (
	"testing"
	"time"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/testutil"
)

func TestCreateCreditCard(t *testing.T) {
	t.Run("full_limit_available", func(t *testing.T) {
		env := setupLedger(t)
		svc := NewCreditCardService(env.db)

		card, err := svc.CreateCreditCard(ctx, env.user.ID, CreditCardInput{
			Name: "Platinum", CreditLimit: dec(t, "5000"), ClosingDay: 25, DueDay: 5,
		})
		testutil.AssertNoError(t, err)

		assertAmount(t, "available limit", dec(t, "5000"), card.AvailableLimit)
		if n := env.count(t, &models.Invoice{}, "credit_card_id = ?", card.ID); n != 0 {
			t.Errorf("expected no invoices before the first charge, got %d", n)
		}
	})

	t.Run("validation", func(t *testing.T) {
		env := setupLedger(t)
		svc := NewCreditCardService(env.db)

		tests := []struct {
			name  string
			input CreditCardInput
			code  string
		}{
			{"same_day", CreditCardInput{Name: "A", CreditLimit: dec(t, "100"), ClosingDay: 10, DueDay: 10}, "SAME_DAY_BILLING_CYCLE"},
			{"day_out_of_range", CreditCardInput{Name: "A", CreditLimit: dec(t, "100"), ClosingDay: 32, DueDay: 10}, "VALIDATION_FAILED"},
			{"zero_limit", CreditCardInput{Name: "A", CreditLimit: dec(t, "0"), ClosingDay: 25, DueDay: 5}, "VALIDATION_FAILED"},
			{"blank_name", CreditCardInput{Name: " ", CreditLimit: dec(t, "100"), ClosingDay: 25, DueDay: 5}, "INVALID_INPUT"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateCreditCard(ctx, env.user.ID, tt.input)
				testutil.AssertAppError(t, err, tt.code)
			})
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		env := setupLedger(t)
		svc := NewCreditCardService(env.db)
		input := CreditCardInput{Name: "Gold", CreditLimit: dec(t, "100"), ClosingDay: 25, DueDay: 5}

		_, err := svc.CreateCreditCard(ctx, env.user.ID, input)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCreditCard(ctx, env.user.ID, input)
		testutil.AssertAppError(t, err, "DUPLICATE_NAME")
	})
}

func TestUpdateCreditCard(t *testing.T) {
	t.Run("limit_change_keeps_charges", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		svc := NewCreditCardService(env.db)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		_, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "300"), day(2026, time.October, 5)))
		testutil.AssertNoError(t, err)

		limit := dec(t, "800")
		updated, err := svc.UpdateCreditCard(ctx, env.user.ID, card.ID, CreditCardUpdateFields{CreditLimit: &limit})
		testutil.AssertNoError(t, err)

		assertAmount(t, "credit limit", dec(t, "800"), updated.CreditLimit)
		assertAmount(t, "available limit", dec(t, "500"), updated.AvailableLimit)
	})

	t.Run("billing_days", func(t *testing.T) {
		env := setupLedger(t)
		svc := NewCreditCardService(env.db)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)

		closing := 20
		updated, err := svc.UpdateCreditCard(ctx, env.user.ID, card.ID, CreditCardUpdateFields{ClosingDay: &closing})
		testutil.AssertNoError(t, err)
		if updated.ClosingDay != 20 || updated.DueDay != 5 {
			t.Errorf("expected days 20/5, got %d/%d", updated.ClosingDay, updated.DueDay)
		}

		due := 20
		_, err = svc.UpdateCreditCard(ctx, env.user.ID, card.ID, CreditCardUpdateFields{DueDay: &due})
		testutil.AssertAppError(t, err, "SAME_DAY_BILLING_CYCLE")
	})

	t.Run("other_user", func(t *testing.T) {
		env := setupLedger(t)
		svc := NewCreditCardService(env.db)
		other := testutil.CreateTestUser(t, env.db)
		card := testutil.CreateTestCreditCard(t, env.db, other.ID, dec(t, "1000"), 25, 5)

		_, err := svc.UpdateCreditCard(ctx, env.user.ID, card.ID, CreditCardUpdateFields{Name: strPtr("Mine")})
		testutil.AssertAppError(t, err, "CREDIT_CARD_NOT_FOUND")
	})
}

func TestDeleteCreditCard(t *testing.T) {
	t.Run("removes_empty_invoices", func(t *testing.T) {
		env := setupLedger(t)
		svc := NewCreditCardService(env.db)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		_, err := env.invoices.ResolveInvoice(env.db, env.user.ID, card.ID, day(2026, time.October, 5))
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteCreditCard(ctx, env.user.ID, card.ID))
		if n := env.count(t, &models.Invoice{}, "credit_card_id = ?", card.ID); n != 0 {
			t.Errorf("expected invoices removed, got %d", n)
		}
	})

	t.Run("billed_card_in_use", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		svc := NewCreditCardService(env.db)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		_, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "10"), day(2026, time.October, 5)))
		testutil.AssertNoError(t, err)

		testutil.AssertAppError(t, svc.DeleteCreditCard(ctx, env.user.ID, card.ID), "RESOURCE_IN_USE")
	})
}
