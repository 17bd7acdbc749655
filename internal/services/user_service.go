package services

import (
	"context"
	"strings"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"

	"gorm.io/gorm"
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new owner.
func (s *userService) CreateUser(ctx context.Context, email, fullName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}

	db := session(ctx, s.db)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	user := &models.User{
		Email:    email,
		FullName: strings.TrimSpace(fullName),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, storeError(err, apperrors.ErrDuplicateEmail)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return findByID[models.User](session(ctx, s.db), id, apperrors.ErrUserNotFound)
}

// DeleteUser removes a user and every row the user owns.
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	err := session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		user, err := findByID[models.User](tx, id, apperrors.ErrUserNotFound)
		if err != nil {
			return err
		}

		newDB := tx.Session(&gorm.Session{NewDB: true})
		userTransactions := newDB.Model(&models.Transaction{}).Select("id").Where("user_id = ?", user.ID)
		userCards := newDB.Model(&models.CreditCard{}).Select("id").Where("user_id = ?", user.ID)

		steps := []struct {
			name  string
			query *gorm.DB
			model interface{}
		}{
			{"splits", tx.Where("transaction_id IN (?)", userTransactions), &models.Split{}},
			{"transactions", tx.Where("user_id = ?", user.ID), &models.Transaction{}},
			{"repetitions", tx.Where("user_id = ?", user.ID), &models.Repetition{}},
			{"invoices", tx.Where("credit_card_id IN (?)", userCards), &models.Invoice{}},
			{"credit_cards", tx.Where("user_id = ?", user.ID), &models.CreditCard{}},
			{"accounts", tx.Where("user_id = ?", user.ID), &models.Account{}},
			{"categories", tx.Where("user_id = ?", user.ID), &models.Category{}},
			{"relatives", tx.Where("user_id = ?", user.ID), &models.Relative{}},
			{"audit_logs", tx.Where("user_id = ?", user.ID), &models.AuditLog{}},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if err := tx.Delete(user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Get().Infow("User deleted with all owned data", "user_id", id)
	return nil
}
