package services

import (
	"context"
	"strings"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/money"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// accountService handles account-related business logic.
type accountService struct {
	db     *gorm.DB
	ledger ledgerAccountant
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates an account for a user. A non-zero initial balance is
// posted as a consolidated income (or expense, when negative) so the balance
// always equals the sum of its consolidated transactions.
func (s *accountService) CreateAccount(ctx context.Context, userID string, input AccountInput) (*models.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if input.Kind == "" {
		input.Kind = models.AccountKindChecking
	}
	if !money.HasValidPrecision(input.InitialBalance) {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "initial balance must have at most two decimal places")
	}

	account := &models.Account{
		UserID:      userID,
		Name:        name,
		Kind:        input.Kind,
		Description: input.Description,
		Icon:        input.Icon,
		Balance:     decimal.Zero,
		IsActive:    true,
	}

	err := session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, &models.Account{}, userID, name, "")
		if err != nil {
			return err
		}
		if taken {
			return apperrors.WithMessage(apperrors.ErrDuplicateName, "an account with this name already exists")
		}

		if err := tx.Create(account).Error; err != nil {
			return storeError(err, apperrors.ErrDuplicateName)
		}

		if input.InitialBalance.IsZero() {
			return nil
		}

		accountID := account.ID
		opening := &models.Transaction{
			UserID:            userID,
			Kind:              models.TransactionKindIncome,
			PaymentMethod:     models.PaymentMethodDebit,
			PaymentPlan:       models.PaymentPlanSingle,
			Amount:            input.InitialBalance.Abs(),
			Description:       "Initial balance",
			PaymentDate:       today(),
			InstallmentLabel:  "1/1",
			InstallmentNumber: 1,
			AccountID:         &accountID,
		}
		if input.InitialBalance.IsNegative() {
			opening.Kind = models.TransactionKindExpense
		}
		if err := tx.Create(opening).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.ledger.ApplyBalance(tx, opening); err != nil {
			return err
		}
		return tx.First(account, "id = ?", account.ID).Error
	})
	if err != nil {
		return nil, storeError(err, apperrors.ErrDuplicateName)
	}

	logger.Get().Infow("Account created", "user_id", userID, "account_id", account.ID)
	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	base := session(ctx, s.db).Model(&models.Account{}).Where("user_id = ?", userID)

	result, err := pagination.Find[models.Account](base, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return findOwned[models.Account](session(ctx, s.db), userID, accountID, apperrors.ErrAccountNotFound)
}

// UpdateAccount applies the fields that are set. The balance is not editable:
// it only moves through consolidation.
func (s *accountService) UpdateAccount(ctx context.Context, userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	db := session(ctx, s.db)
	account, err := findOwned[models.Account](db, userID, accountID, apperrors.ErrAccountNotFound)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name cannot be empty")
		}
		taken, err := nameTaken(db, &models.Account{}, userID, name, account.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.WithMessage(apperrors.ErrDuplicateName, "an account with this name already exists")
		}
		updates["name"] = name
	}
	if fields.Kind != nil {
		updates["kind"] = *fields.Kind
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Icon != nil {
		updates["icon"] = *fields.Icon
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	if len(updates) > 0 {
		if err := db.Model(account).Updates(updates).Error; err != nil {
			return nil, storeError(err, apperrors.ErrDuplicateName)
		}
		// Reload to get fresh data
		if err := db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return account, nil
}

// DeleteAccount removes an account that no transaction or invoice refers to.
func (s *accountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		account, err := findOwned[models.Account](tx, userID, accountID, apperrors.ErrAccountNotFound)
		if err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&models.Transaction{}).
			Where("account_id = ? OR destination_account_id = ?", account.ID, account.ID).
			Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if refs > 0 {
			return apperrors.WithMessage(apperrors.ErrResourceInUse, "account has transactions")
		}

		if err := tx.Model(&models.Invoice{}).
			Where("settlement_account_id = ?", account.ID).
			Update("settlement_account_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
