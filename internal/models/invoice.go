package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingMonthLayout formats Invoice.BillingMonth.
const BillingMonthLayout = "2006-01"

// Invoice is one billing cycle of a credit card. The cycle covers every
// transaction dated before ClosingDate and on/after the previous invoice's
// ClosingDate.
type Invoice struct {
	Base
	CreditCardID        string          `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_card_month" json:"credit_card_id"`
	BillingMonth        string          `gorm:"size:7;not null;uniqueIndex:idx_invoices_card_month" json:"billing_month"`
	ClosingDate         time.Time       `gorm:"type:date;not null;index" json:"closing_date"`
	DueDate             time.Time       `gorm:"type:date;not null" json:"due_date"`
	PaymentDate         *time.Time      `gorm:"type:date" json:"payment_date,omitempty"`
	AccumulatedCharges  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"accumulated_charges"`
	SettlementAccountID *string         `gorm:"type:uuid" json:"settlement_account_id,omitempty"`
}

// IsPaid reports whether the invoice has been settled.
func (i *Invoice) IsPaid() bool {
	return i.PaymentDate != nil
}
