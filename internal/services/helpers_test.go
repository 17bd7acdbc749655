package services

import (
	"context"
	"testing"
	"time"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/events"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/plan"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ctx = context.Background()

// freezeClock pins the service clock to at for the rest of the test.
func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return testutil.Money(t, s)
}

func strPtr(s string) *string { return &s }

// ledgerEnv bundles a fresh database, one user and the ledger services.
type ledgerEnv struct {
	db           *gorm.DB
	user         *models.User
	invoices     InvoiceServicer
	transactions TransactionServicer
	settlements  SettlementServicer
	published    *events.MemoryPublisher
}

func setupLedger(t *testing.T) *ledgerEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	published := &events.MemoryPublisher{}
	invoices := NewInvoiceService(db)
	return &ledgerEnv{
		db:           db,
		user:         testutil.CreateTestUser(t, db),
		invoices:     invoices,
		transactions: NewTransactionService(db, invoices, published, plan.DefaultPolicy()),
		settlements:  NewSettlementService(db, published),
		published:    published,
	}
}

func assertAmount(t *testing.T, what string, want, got decimal.Decimal) {
	t.Helper()
	testutil.AssertAmount(t, what, want, got)
}

func (e *ledgerEnv) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	return testutil.Reload[models.Account](t, e.db, accountID).Balance
}

func (e *ledgerEnv) available(t *testing.T, cardID string) decimal.Decimal {
	t.Helper()
	return testutil.Reload[models.CreditCard](t, e.db, cardID).AvailableLimit
}

func (e *ledgerEnv) cardInvoices(t *testing.T, cardID string) []models.Invoice {
	t.Helper()
	var invoices []models.Invoice
	if err := e.db.Where("credit_card_id = ?", cardID).Order("closing_date ASC").Find(&invoices).Error; err != nil {
		t.Fatalf("failed to list invoices: %v", err)
	}
	return invoices
}

func (e *ledgerEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

// expense builds a single debit expense input on accountID.
func expense(accountID string, amount decimal.Decimal, consolidated bool) TransactionInput {
	return TransactionInput{
		Kind:          models.TransactionKindExpense,
		PaymentMethod: models.PaymentMethodDebit,
		PaymentPlan:   models.PaymentPlanSingle,
		Amount:        amount,
		Description:   "Groceries",
		PaymentDate:   day(2026, time.October, 5),
		Consolidated:  consolidated,
		AccountID:     &accountID,
	}
}

// charge builds a single credit card expense input.
func charge(cardID string, amount decimal.Decimal, date time.Time) TransactionInput {
	return TransactionInput{
		Kind:          models.TransactionKindExpense,
		PaymentMethod: models.PaymentMethodCredit,
		PaymentPlan:   models.PaymentPlanSingle,
		Amount:        amount,
		Description:   "Card purchase",
		PaymentDate:   date,
		CreditCardID:  &cardID,
	}
}

// recurringCharge builds a monthly recurring credit card expense starting on
// 2026-10-05.
func recurringCharge(cardID string, amount decimal.Decimal) TransactionInput {
	input := charge(cardID, amount, day(2026, time.October, 5))
	input.PaymentPlan = models.PaymentPlanRecurring
	input.Recurrence = models.RecurrenceMonthly
	return input
}
