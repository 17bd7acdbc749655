package services

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/errors"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/plan"

	"gorm.io/gorm"
)

// now is the service clock.
var now = time.Now

// today returns the current calendar date in UTC.
func today() time.Time {
	return plan.Day(now())
}

// session binds db to ctx without its cancellation: once a ledger operation
// starts it runs to commit or rollback.
func session(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(context.WithoutCancel(ctx))
}

// findOwned loads the row of type T with the given id that belongs to userID.
func findOwned[T any](tx *gorm.DB, userID, id string, notFound *apperrors.AppError) (*T, error) {
	var row T
	if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &row, nil
}

// findByID loads the row of type T with the given id regardless of owner.
func findByID[T any](tx *gorm.DB, id string, notFound *apperrors.AppError) (*T, error) {
	var row T
	if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &row, nil
}

// nameTaken reports whether userID already has a row of model named name,
// ignoring the row with id exceptID.
func nameTaken(tx *gorm.DB, model interface{}, userID, name, exceptID string) (bool, error) {
	q := tx.Model(model).Where("user_id = ? AND name = ?", userID, name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// storeError maps a write error, turning unique-key violations into
// conflict.
func storeError(err error, conflict *apperrors.AppError) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Wrap(conflict, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func boolPtr(v bool) *bool { return &v }
