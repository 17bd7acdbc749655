package models

import "github.com/shopspring/decimal"

// CreditCard tracks a card's limit. AvailableLimit is maintained incrementally
// by the ledger accountant and is never recomputed from transactions.
type CreditCard struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;uniqueIndex:idx_credit_cards_user_name" json:"user_id"`
	Name           string          `gorm:"not null;uniqueIndex:idx_credit_cards_user_name" json:"name"`
	Icon           string          `json:"icon"`
	CreditLimit    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"credit_limit"`
	AvailableLimit decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"available_limit"`
	ClosingDay     int             `gorm:"not null" json:"closing_day"`
	DueDay         int             `gorm:"not null" json:"due_day"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
}
