package services

import (
	"testing"
	"time"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/events"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/testutil"
)

func TestSettleInvoice(t *testing.T) {
	t.Run("settles_charges_and_restores_limit", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 20))
		env := setupLedger(t)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		account := testutil.CreateTestAccountWithBalance(t, env.db, env.user.ID, dec(t, "1000"))

		first, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "100"), day(2026, time.October, 3)))
		testutil.AssertNoError(t, err)
		second, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "50.40"), day(2026, time.October, 18)))
		testutil.AssertNoError(t, err)
		invoiceID := *first[0].InvoiceID
		if *second[0].InvoiceID != invoiceID {
			t.Fatal("expected both charges on the same invoice")
		}

		receipt, err := env.settlements.SettleInvoice(ctx, env.user.ID, invoiceID, account.ID)
		testutil.AssertNoError(t, err)

		assertAmount(t, "receipt amount", dec(t, "150.40"), receipt.Amount)
		if receipt.Consolidated != 2 {
			t.Errorf("expected 2 consolidated charges, got %d", receipt.Consolidated)
		}
		if receipt.Payment.AccountID == nil || *receipt.Payment.AccountID != account.ID {
			t.Error("expected the payment posted on the settlement account")
		}

		invoice := testutil.Reload[models.Invoice](t, env.db, invoiceID)
		assertAmount(t, "invoice total", dec(t, "0"), invoice.AccumulatedCharges)
		if !invoice.IsPaid() || !invoice.PaymentDate.Equal(day(2026, time.October, 20)) {
			t.Errorf("expected invoice paid on 2026-10-20, got %v", invoice.PaymentDate)
		}
		if invoice.SettlementAccountID == nil || *invoice.SettlementAccountID != account.ID {
			t.Error("expected settlement account recorded on the invoice")
		}
		assertAmount(t, "available limit", dec(t, "1000"), env.available(t, card.ID))
		assertAmount(t, "balance", dec(t, "849.60"), env.balance(t, account.ID))

		for _, id := range []string{first[0].ID, second[0].ID} {
			if !testutil.Reload[models.Transaction](t, env.db, id).Consolidated {
				t.Errorf("expected charge %s consolidated", id)
			}
		}

		published := env.published.Events()
		last := published[len(published)-1]
		if last.Type != events.InvoiceSettled || last.Amount != "150.40" || last.Count != 2 {
			t.Errorf("unexpected event %+v", last)
		}
	})

	t.Run("only_settled_invoice_charges_restored", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		account := testutil.CreateTestAccountWithBalance(t, env.db, env.user.ID, dec(t, "1000"))

		input := charge(card.ID, dec(t, "300"), day(2026, time.October, 5))
		input.PaymentPlan = models.PaymentPlanInstallment
		input.Installments = 3
		created, err := env.transactions.CreateTransaction(ctx, env.user.ID, input)
		testutil.AssertNoError(t, err)

		_, err = env.settlements.SettleInvoice(ctx, env.user.ID, *created[0].InvoiceID, account.ID)
		testutil.AssertNoError(t, err)

		assertAmount(t, "available limit", dec(t, "800"), env.available(t, card.ID))
		assertAmount(t, "balance", dec(t, "900"), env.balance(t, account.ID))
		if testutil.Reload[models.Transaction](t, env.db, created[1].ID).Consolidated {
			t.Error("charges on later invoices should stay unconsolidated")
		}
	})

	t.Run("future_recurring_charges_move_to_next_cycle", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		account := testutil.CreateTestAccountWithBalance(t, env.db, env.user.ID, dec(t, "1000"))

		monthly := recurringCharge(card.ID, dec(t, "50"))
		recurring, err := env.transactions.CreateTransaction(ctx, env.user.ID, monthly)
		testutil.AssertNoError(t, err)
		single, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "10"), day(2026, time.November, 10)))
		testutil.AssertNoError(t, err)
		november := *single[0].InvoiceID
		if *recurring[1].InvoiceID != november {
			t.Fatal("expected the second occurrence on the november invoice")
		}

		freezeClock(t, day(2026, time.October, 20))
		receipt, err := env.settlements.SettleInvoice(ctx, env.user.ID, november, account.ID)
		testutil.AssertNoError(t, err)

		assertAmount(t, "receipt amount", dec(t, "10"), receipt.Amount)
		if receipt.Deferred != 1 {
			t.Errorf("expected 1 deferred charge, got %d", receipt.Deferred)
		}
		moved := testutil.Reload[models.Transaction](t, env.db, recurring[1].ID)
		if moved.ParticipatesInInvoiceLimit != nil {
			t.Errorf("expected the deferred charge to stay pending, got %v", *moved.ParticipatesInInvoiceLimit)
		}
		if next := testutil.Reload[models.Invoice](t, env.db, *moved.InvoiceID); next.BillingMonth != "2026-12" {
			t.Errorf("expected the charge on the 2026-12 invoice, got %s", next.BillingMonth)
		}

		activated, err := env.invoices.ActivateDueOccurrences(ctx, day(2026, time.November, 10))
		testutil.AssertNoError(t, err)
		if activated != 1 {
			t.Errorf("expected 1 activated charge, got %d", activated)
		}
		assertAmount(t, "available limit", dec(t, "900"), env.available(t, card.ID))
		testutil.AssertCardConsistent(t, env.db, card.ID)
	})

	t.Run("due_recurring_charges_settle_with_invoice", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		account := testutil.CreateTestAccountWithBalance(t, env.db, env.user.ID, dec(t, "1000"))

		recurring, err := env.transactions.CreateTransaction(ctx, env.user.ID, recurringCharge(card.ID, dec(t, "50")))
		testutil.AssertNoError(t, err)

		freezeClock(t, day(2026, time.November, 20))
		receipt, err := env.settlements.SettleInvoice(ctx, env.user.ID, *recurring[1].InvoiceID, account.ID)
		testutil.AssertNoError(t, err)

		assertAmount(t, "receipt amount", dec(t, "50"), receipt.Amount)
		if receipt.Consolidated != 1 || receipt.Deferred != 0 {
			t.Errorf("expected 1 consolidated and 0 deferred, got %d and %d", receipt.Consolidated, receipt.Deferred)
		}
		if !testutil.Reload[models.Transaction](t, env.db, recurring[1].ID).Consolidated {
			t.Error("expected the due occurrence consolidated")
		}
		assertAmount(t, "balance", dec(t, "950"), env.balance(t, account.ID))
		assertAmount(t, "available limit", dec(t, "950"), env.available(t, card.ID))
		testutil.AssertCardConsistent(t, env.db, card.ID)
	})

	t.Run("already_paid", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		account := testutil.CreateTestAccountWithBalance(t, env.db, env.user.ID, dec(t, "1000"))
		created, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "10"), day(2026, time.October, 5)))
		testutil.AssertNoError(t, err)

		_, err = env.settlements.SettleInvoice(ctx, env.user.ID, *created[0].InvoiceID, account.ID)
		testutil.AssertNoError(t, err)
		_, err = env.settlements.SettleInvoice(ctx, env.user.ID, *created[0].InvoiceID, account.ID)
		testutil.AssertAppError(t, err, "INVOICE_ALREADY_PAID")

		assertAmount(t, "balance", dec(t, "990"), env.balance(t, account.ID))
	})

	t.Run("invoice_without_charges", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		account := testutil.CreateTestAccountWithBalance(t, env.db, env.user.ID, dec(t, "1000"))
		_, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "10"), day(2026, time.October, 5)))
		testutil.AssertNoError(t, err)

		invoices := env.cardInvoices(t, card.ID)
		_, err = env.settlements.SettleInvoice(ctx, env.user.ID, invoices[1].ID, account.ID)
		testutil.AssertAppError(t, err, "INVOICE_HAS_NO_CHARGES")
	})

	t.Run("unknown_invoice", func(t *testing.T) {
		env := setupLedger(t)
		account := testutil.CreateTestAccount(t, env.db, env.user.ID)

		_, err := env.settlements.SettleInvoice(ctx, env.user.ID, "0192f0c0-0000-7000-8000-000000000000", account.ID)
		testutil.AssertAppError(t, err, "INVOICE_NOT_FOUND")
	})

	t.Run("other_users_invoice", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		created, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "10"), day(2026, time.October, 5)))
		testutil.AssertNoError(t, err)

		other := testutil.CreateTestUser(t, env.db)
		account := testutil.CreateTestAccountWithBalance(t, env.db, other.ID, dec(t, "100"))
		_, err = env.settlements.SettleInvoice(ctx, other.ID, *created[0].InvoiceID, account.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("account_not_found", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		created, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "10"), day(2026, time.October, 5)))
		testutil.AssertNoError(t, err)

		other := testutil.CreateTestUser(t, env.db)
		account := testutil.CreateTestAccount(t, env.db, other.ID)
		_, err = env.settlements.SettleInvoice(ctx, env.user.ID, *created[0].InvoiceID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")

		assertAmount(t, "available limit", dec(t, "990"), env.available(t, card.ID))
	})

	t.Run("payment_is_immutable", func(t *testing.T) {
		freezeClock(t, day(2026, time.October, 5))
		env := setupLedger(t)
		card := testutil.CreateTestCreditCard(t, env.db, env.user.ID, dec(t, "1000"), 25, 5)
		account := testutil.CreateTestAccountWithBalance(t, env.db, env.user.ID, dec(t, "1000"))
		created, err := env.transactions.CreateTransaction(ctx, env.user.ID, charge(card.ID, dec(t, "10"), day(2026, time.October, 5)))
		testutil.AssertNoError(t, err)

		receipt, err := env.settlements.SettleInvoice(ctx, env.user.ID, *created[0].InvoiceID, account.ID)
		testutil.AssertNoError(t, err)

		_, err = env.transactions.DeleteTransaction(ctx, env.user.ID, receipt.Payment.ID)
		testutil.AssertAppError(t, err, "IMMUTABLE_TRANSACTION")
	})
}
