package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind represents the kind of transaction
type TransactionKind string

const (
	TransactionKindExpense  TransactionKind = "expense"
	TransactionKindIncome   TransactionKind = "income"
	TransactionKindTransfer TransactionKind = "transfer"
)

// PaymentMethod is how a transaction is paid.
type PaymentMethod string

const (
	PaymentMethodDebit  PaymentMethod = "debit"
	PaymentMethodCredit PaymentMethod = "credit"
	PaymentMethodCash   PaymentMethod = "cash"
)

// PaymentPlan describes how a purchase is spread over time.
type PaymentPlan string

const (
	PaymentPlanSingle      PaymentPlan = "single"
	PaymentPlanInstallment PaymentPlan = "installment"
	PaymentPlanRecurring   PaymentPlan = "recurring"
)

// Transaction is one dated ledger movement. Installment and recurring plans
// produce one Transaction per occurrence, grouped by RepetitionID.
type Transaction struct {
	Base
	UserID               string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind                 TransactionKind `gorm:"not null" json:"kind"`
	PaymentMethod        PaymentMethod   `gorm:"not null" json:"payment_method"`
	PaymentPlan          PaymentPlan     `gorm:"not null" json:"payment_plan"`
	Amount               decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Description          string          `json:"description"`
	PaymentDate          time.Time       `gorm:"type:date;not null;index" json:"payment_date"`
	Consolidated         bool            `gorm:"not null;default:false" json:"consolidated"`
	InstallmentLabel     string          `gorm:"size:15;not null" json:"installment"`
	InstallmentNumber    int             `gorm:"not null;default:1" json:"installment_number"`
	CategoryID           *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	AccountID            *string         `gorm:"type:uuid;index" json:"account_id,omitempty"`
	DestinationAccountID *string         `gorm:"type:uuid" json:"destination_account_id,omitempty"`
	InvoiceID            *string         `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	RepetitionID         *string         `gorm:"type:uuid;index" json:"repetition_id,omitempty"`

	// ParticipatesInInvoiceLimit is nil while a future recurring credit
	// occurrence waits to be counted against its card.
	ParticipatesInInvoiceLimit *bool `json:"participates_in_invoice_limit,omitempty"`
}

// IsCredit reports whether the transaction is charged to a credit card.
func (t *Transaction) IsCredit() bool {
	return t.PaymentMethod == PaymentMethodCredit
}

// Participates reports whether the transaction currently counts against its
// card's available limit.
func (t *Transaction) Participates() bool {
	return t.ParticipatesInInvoiceLimit != nil && *t.ParticipatesInInvoiceLimit
}

// MovesBalance reports whether consolidating the transaction changes an
// account balance. Credit charges reach accounts through invoice settlement.
func (t *Transaction) MovesBalance() bool {
	return !t.IsCredit() && t.AccountID != nil
}
