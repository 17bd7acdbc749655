package testutil_test

import (
	"testing"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "accounts", "credit_cards", "invoices", "categories", "relatives", "repetitions", "transactions", "splits", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	if err := second.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Errorf("expected an empty second database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}

	account := testutil.CreateTestAccountWithBalance(t, db, user.ID, testutil.Money(t, "50.25"))
	reloaded := testutil.Reload[models.Account](t, db, account.ID)
	if !reloaded.Balance.Equal(testutil.Money(t, "50.25")) {
		t.Errorf("expected balance 50.25, got %s", reloaded.Balance)
	}

	card := testutil.CreateTestCreditCard(t, db, user.ID, testutil.Money(t, "1000"), 25, 5)
	if !card.AvailableLimit.Equal(card.CreditLimit) {
		t.Errorf("expected full limit available, got %s of %s", card.AvailableLimit, card.CreditLimit)
	}

	category := testutil.CreateTestCategory(t, db, user.ID, models.TransactionKindExpense)
	if category.TransactionKind != models.TransactionKindExpense {
		t.Errorf("expected expense category, got %s", category.TransactionKind)
	}

	relative := testutil.CreateTestRelative(t, db, user.ID)
	if relative.UserID != user.ID {
		t.Errorf("expected relative owned by %s, got %s", user.ID, relative.UserID)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}

func TestAssertAmount(t *testing.T) {
	testutil.AssertAmount(t, "amount", testutil.Money(t, "10"), testutil.Money(t, "10.00"))
}

func TestAssertCardConsistent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	card := testutil.CreateTestCreditCard(t, db, user.ID, testutil.Money(t, "1000"), 25, 5)
	testutil.AssertCardConsistent(t, db, card.ID)
}
