package models

import "github.com/shopspring/decimal"

// AccountKind represents the kind of bank account
type AccountKind string

const (
	AccountKindChecking   AccountKind = "checking"
	AccountKindSavings    AccountKind = "savings"
	AccountKindWallet     AccountKind = "wallet"
	AccountKindInvestment AccountKind = "investment"
	AccountKindOther      AccountKind = "other"
)

// Account is a money holder whose balance only moves when a transaction
// touching it is consolidated (or un-consolidated).
type Account struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_user_name" json:"user_id"`
	Name        string          `gorm:"not null;uniqueIndex:idx_accounts_user_name" json:"name"`
	Kind        AccountKind     `gorm:"not null" json:"kind"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Balance     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"balance"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
}
