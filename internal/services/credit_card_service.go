package services

import (
	"context"
	"strings"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/money"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"

	"gorm.io/gorm"
)

// creditCardService handles credit card business logic. Invoices are not
// created here: the resolver generates them on the first charge.
type creditCardService struct {
	db     *gorm.DB
	ledger ledgerAccountant
}

// NewCreditCardService creates a new CreditCardServicer.
func NewCreditCardService(db *gorm.DB) CreditCardServicer {
	return &creditCardService{db: db}
}

func validateBillingDays(closingDay, dueDay int) error {
	if closingDay < 1 || closingDay > 31 || dueDay < 1 || dueDay > 31 {
		return apperrors.WithMessage(apperrors.ErrValidationFailed, "closing and due days must be between 1 and 31")
	}
	if closingDay == dueDay {
		return apperrors.ErrSameDayBillingCycle
	}
	return nil
}

// CreateCreditCard creates a card whose available limit starts at its full
// credit limit.
func (s *creditCardService) CreateCreditCard(ctx context.Context, userID string, input CreditCardInput) (*models.CreditCard, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "credit card name is required")
	}
	if !money.IsValidAmount(input.CreditLimit) {
		return nil, apperrors.WithMessage(apperrors.ErrValidationFailed, "credit limit must be positive with at most two decimal places")
	}
	if err := validateBillingDays(input.ClosingDay, input.DueDay); err != nil {
		return nil, err
	}

	card := &models.CreditCard{
		UserID:         userID,
		Name:           name,
		Icon:           input.Icon,
		CreditLimit:    input.CreditLimit,
		AvailableLimit: input.CreditLimit,
		ClosingDay:     input.ClosingDay,
		DueDay:         input.DueDay,
		IsActive:       true,
	}

	err := session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		taken, err := nameTaken(tx, &models.CreditCard{}, userID, name, "")
		if err != nil {
			return err
		}
		if taken {
			return apperrors.WithMessage(apperrors.ErrDuplicateName, "a credit card with this name already exists")
		}
		return tx.Create(card).Error
	})
	if err != nil {
		return nil, storeError(err, apperrors.ErrDuplicateName)
	}

	logger.Get().Infow("Credit card created", "user_id", userID, "credit_card_id", card.ID)
	return card, nil
}

// GetUserCreditCards retrieves a paginated list of cards for a user.
func (s *creditCardService) GetUserCreditCards(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error) {
	base := session(ctx, s.db).Model(&models.CreditCard{}).Where("user_id = ?", userID)

	result, err := pagination.Find[models.CreditCard](base, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetCreditCardByID retrieves a card by ID for a specific user
func (s *creditCardService) GetCreditCardByID(ctx context.Context, userID, cardID string) (*models.CreditCard, error) {
	return findOwned[models.CreditCard](session(ctx, s.db), userID, cardID, apperrors.ErrCreditCardNotFound)
}

// UpdateCreditCard applies the fields that are set. A new credit limit moves
// the available limit by the same delta so outstanding charges stay counted.
// New billing days apply to invoices generated from now on.
func (s *creditCardService) UpdateCreditCard(ctx context.Context, userID, cardID string, fields CreditCardUpdateFields) (*models.CreditCard, error) {
	var card *models.CreditCard
	err := session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		var err error
		card, err = findOwned[models.CreditCard](tx, userID, cardID, apperrors.ErrCreditCardNotFound)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if fields.Name != nil {
			name := strings.TrimSpace(*fields.Name)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "credit card name cannot be empty")
			}
			taken, err := nameTaken(tx, &models.CreditCard{}, userID, name, card.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.WithMessage(apperrors.ErrDuplicateName, "a credit card with this name already exists")
			}
			updates["name"] = name
		}
		if fields.Icon != nil {
			updates["icon"] = *fields.Icon
		}
		if fields.IsActive != nil {
			updates["is_active"] = *fields.IsActive
		}

		closingDay, dueDay := card.ClosingDay, card.DueDay
		if fields.ClosingDay != nil {
			closingDay = *fields.ClosingDay
		}
		if fields.DueDay != nil {
			dueDay = *fields.DueDay
		}
		if fields.ClosingDay != nil || fields.DueDay != nil {
			if err := validateBillingDays(closingDay, dueDay); err != nil {
				return err
			}
			updates["closing_day"] = closingDay
			updates["due_day"] = dueDay
		}

		if fields.CreditLimit != nil {
			if !money.IsValidAmount(*fields.CreditLimit) {
				return apperrors.WithMessage(apperrors.ErrValidationFailed, "credit limit must be positive with at most two decimal places")
			}
			if err := s.ledger.AdjustCreditLimit(tx, card, *fields.CreditLimit); err != nil {
				return err
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(card).Updates(updates).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", card.ID).First(card).Error
	})
	if err != nil {
		return nil, storeError(err, apperrors.ErrDuplicateName)
	}
	return card, nil
}

// DeleteCreditCard removes a card and its invoices. Cards with billed
// transactions cannot be deleted.
func (s *creditCardService) DeleteCreditCard(ctx context.Context, userID, cardID string) error {
	return session(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		card, err := findOwned[models.CreditCard](tx, userID, cardID, apperrors.ErrCreditCardNotFound)
		if err != nil {
			return err
		}

		invoiceIDs := tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.Invoice{}).Select("id").Where("credit_card_id = ?", card.ID)
		var refs int64
		if err := tx.Model(&models.Transaction{}).Where("invoice_id IN (?)", invoiceIDs).Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if refs > 0 {
			return apperrors.WithMessage(apperrors.ErrResourceInUse, "credit card has billed transactions")
		}

		if err := tx.Where("credit_card_id = ?", card.ID).Delete(&models.Invoice{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(card).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
