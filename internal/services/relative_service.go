package services

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// relativeService manages the people a user splits expenses with.
type relativeService struct {
	db *gorm.DB
}

// NewRelativeService creates a new RelativeServicer.
func NewRelativeService(db *gorm.DB) RelativeServicer {
	return &relativeService{db: db}
}

// CreateRelative creates a new relative
func (s *relativeService) CreateRelative(ctx context.Context, userID string, input RelativeInput) (*models.Relative, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "relative name is required")
	}

	db := session(ctx, s.db)
	taken, err := nameTaken(db, &models.Relative{}, userID, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateName, "a relative with this name already exists")
	}

	relative := &models.Relative{
		UserID:   userID,
		Name:     name,
		Degree:   input.Degree,
		Email:    strings.TrimSpace(input.Email),
		IsActive: true,
	}
	if err := db.Create(relative).Error; err != nil {
		return nil, storeError(err, apperrors.ErrDuplicateName)
	}
	return relative, nil
}

// GetUserRelatives retrieves a paginated list of relatives for a user.
func (s *relativeService) GetUserRelatives(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Relative], error) {
	base := session(ctx, s.db).Model(&models.Relative{}).Where("user_id = ?", userID)

	result, err := pagination.Find[models.Relative](base, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetRelativeByID retrieves a relative by ID for a specific user
func (s *relativeService) GetRelativeByID(ctx context.Context, userID, relativeID string) (*models.Relative, error) {
	return findOwned[models.Relative](session(ctx, s.db), userID, relativeID, apperrors.ErrRelativeNotFound)
}

// UpdateRelative applies the fields that are set.
func (s *relativeService) UpdateRelative(ctx context.Context, userID, relativeID string, fields RelativeUpdateFields) (*models.Relative, error) {
	db := session(ctx, s.db)
	relative, err := findOwned[models.Relative](db, userID, relativeID, apperrors.ErrRelativeNotFound)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "relative name cannot be empty")
		}
		taken, err := nameTaken(db, &models.Relative{}, userID, name, relative.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.WithMessage(apperrors.ErrDuplicateName, "a relative with this name already exists")
		}
		updates["name"] = name
	}
	if fields.Degree != nil {
		updates["degree"] = *fields.Degree
	}
	if fields.Email != nil {
		updates["email"] = strings.TrimSpace(*fields.Email)
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	if len(updates) > 0 {
		if err := db.Model(relative).Updates(updates).Error; err != nil {
			return nil, storeError(err, apperrors.ErrDuplicateName)
		}
		if err := db.Where("id = ?", relative.ID).First(relative).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return relative, nil
}

// DeleteRelative deletes a relative that no split refers to.
func (s *relativeService) DeleteRelative(ctx context.Context, userID, relativeID string) error {
	db := session(ctx, s.db)
	relative, err := findOwned[models.Relative](db, userID, relativeID, apperrors.ErrRelativeNotFound)
	if err != nil {
		return err
	}

	var refs int64
	if err := db.Model(&models.Split{}).Where("relative_id = ?", relative.ID).Count(&refs).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if refs > 0 {
		return apperrors.WithMessage(apperrors.ErrResourceInUse, "relative has split transactions")
	}

	if err := db.Delete(relative).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetStatement lists what a relative owes for a month: every unconsolidated
// transaction dated in the month that has a split for the relative.
func (s *relativeService) GetStatement(ctx context.Context, userID, relativeID string, year int, month time.Month) (*RelativeStatement, error) {
	if month < time.January || month > time.December || year < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid statement month")
	}

	db := session(ctx, s.db)
	relative, err := findOwned[models.Relative](db, userID, relativeID, apperrors.ErrRelativeNotFound)
	if err != nil {
		return nil, err
	}

	var splits []models.Split
	if err := db.Where("relative_id = ?", relative.ID).Find(&splits).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	shares := make(map[string]decimal.Decimal, len(splits))
	ids := make([]string, 0, len(splits))
	for _, sp := range splits {
		shares[sp.TransactionID] = sp.Amount
		ids = append(ids, sp.TransactionID)
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	statement := &RelativeStatement{
		Relative:          *relative,
		Year:              year,
		Month:             int(month),
		Lines:             []StatementLine{},
		TotalTransactions: decimal.Zero,
		TotalShare:        decimal.Zero,
	}
	if len(ids) == 0 {
		return statement, nil
	}

	var transactions []models.Transaction
	err = db.Where("id IN ? AND user_id = ? AND consolidated = ? AND payment_date >= ? AND payment_date < ?",
		ids, userID, false, from, from.AddDate(0, 1, 0)).
		Order("payment_date ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, t := range transactions {
		line := StatementLine{
			TransactionID:     t.ID,
			Description:       t.Description,
			PaymentDate:       t.PaymentDate,
			Installment:       t.InstallmentLabel,
			TransactionAmount: t.Amount,
			ShareAmount:       shares[t.ID],
		}
		statement.Lines = append(statement.Lines, line)
		statement.TotalTransactions = statement.TotalTransactions.Add(line.TransactionAmount)
		statement.TotalShare = statement.TotalShare.Add(line.ShareAmount)
	}
	return statement, nil
}
