package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Money parses a decimal literal, failing the test on malformed input.
func Money(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

// CreateTestUser creates a user with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		FullName: "Test User",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a checking account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, decimal.Zero)
}

// CreateTestAccountWithBalance creates a checking account holding balance.
// The balance is written directly, without an opening transaction.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance decimal.Decimal) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Kind:     models.AccountKindChecking,
		Balance:  balance,
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCreditCard creates a card with its full limit available.
func CreateTestCreditCard(t *testing.T, db *gorm.DB, userID string, limit decimal.Decimal, closingDay, dueDay int) *models.CreditCard {
	t.Helper()

	card := &models.CreditCard{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Card %d", nextID()),
		CreditLimit:    limit,
		AvailableLimit: limit,
		ClosingDay:     closingDay,
		DueDay:         dueDay,
		IsActive:       true,
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("failed to create test credit card: %v", err)
	}
	return card
}

// CreateTestCategory creates a variable category for kind.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, kind models.TransactionKind) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:          userID,
		Name:            fmt.Sprintf("Test Category %d", nextID()),
		Kind:            models.CategoryKindVariable,
		TransactionKind: kind,
		IsActive:        true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestRelative creates a relative of the user.
func CreateTestRelative(t *testing.T, db *gorm.DB, userID string) *models.Relative {
	t.Helper()

	relative := &models.Relative{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Relative %d", nextID()),
		Degree:   "sibling",
		IsActive: true,
	}
	if err := db.Create(relative).Error; err != nil {
		t.Fatalf("failed to create test relative: %v", err)
	}
	return relative
}

// Reload reads the current state of row from the database.
func Reload[T any](t *testing.T, db *gorm.DB, id string) *T {
	t.Helper()

	var row T
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		t.Fatalf("failed to reload %T %s: %v", row, id, err)
	}
	return &row
}
