package models

// CategoryKind separates fixed from variable spending.
type CategoryKind string

const (
	CategoryKindFixed    CategoryKind = "fixed"
	CategoryKindVariable CategoryKind = "variable"
)

// Category represents a transaction category
type Category struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;uniqueIndex:idx_categories_user_name" json:"user_id"`
	Name            string          `gorm:"not null;uniqueIndex:idx_categories_user_name" json:"name"`
	Kind            CategoryKind    `gorm:"not null" json:"kind"`
	TransactionKind TransactionKind `gorm:"not null" json:"transaction_kind"`
	Description     string          `json:"description"`
	Icon            string          `json:"icon"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
}
