package services

import (
	"context"
	"strings"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/pagination"

	"gorm.io/gorm"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(ctx context.Context, userID string, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if input.Kind == "" {
		input.Kind = models.CategoryKindVariable
	}
	if input.TransactionKind == "" {
		input.TransactionKind = models.TransactionKindExpense
	}
	if input.TransactionKind == models.TransactionKindTransfer {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "categories apply to expenses or incomes")
	}

	db := session(ctx, s.db)

	// Check if a category with the same name already exists for this user
	taken, err := nameTaken(db, &models.Category{}, userID, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateName, "category with this name already exists")
	}

	category := &models.Category{
		UserID:          userID,
		Name:            name,
		Kind:            input.Kind,
		TransactionKind: input.TransactionKind,
		Description:     input.Description,
		Icon:            input.Icon,
		IsActive:        true,
	}
	if err := db.Create(category).Error; err != nil {
		return nil, storeError(err, apperrors.ErrDuplicateName)
	}

	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user,
// optionally restricted to one transaction kind.
func (s *categoryService) GetUserCategories(ctx context.Context, userID string, kind *models.TransactionKind, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	base := session(ctx, s.db).Model(&models.Category{}).Where("user_id = ?", userID)
	if kind != nil {
		base = base.Where("transaction_kind = ?", *kind)
	}

	result, err := pagination.Find[models.Category](base, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	return findOwned[models.Category](session(ctx, s.db), userID, categoryID, apperrors.ErrCategoryNotFound)
}

// UpdateCategory applies the fields that are set.
func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID string, fields CategoryUpdateFields) (*models.Category, error) {
	db := session(ctx, s.db)
	category, err := findOwned[models.Category](db, userID, categoryID, apperrors.ErrCategoryNotFound)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		taken, err := nameTaken(db, &models.Category{}, userID, name, category.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.WithMessage(apperrors.ErrDuplicateName, "category with this name already exists")
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
		if err := db.Model(category).Updates(updates).Error; err != nil {
			return nil, storeError(err, apperrors.ErrDuplicateName)
		}
		if err := db.Where("id = ?", category.ID).First(category).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory deletes a category that no transaction uses.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	db := session(ctx, s.db)
	category, err := findOwned[models.Category](db, userID, categoryID, apperrors.ErrCategoryNotFound)
	if err != nil {
		return err
	}

	var inUse int64
	if err := db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
