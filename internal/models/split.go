package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Split is the share of one transaction attributed to a relative.
type Split struct {
	TransactionID string          `gorm:"type:uuid;primaryKey" json:"transaction_id"`
	RelativeID    string          `gorm:"type:uuid;primaryKey;index" json:"relative_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}
