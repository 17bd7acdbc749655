package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurrenceType is the interval between recurring occurrences.
type RecurrenceType string

const (
	RecurrenceNone     RecurrenceType = "none"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceBiweekly RecurrenceType = "biweekly"
	RecurrenceMonthly  RecurrenceType = "monthly"
	RecurrenceAnnual   RecurrenceType = "annual"
)

// Repetition groups the occurrences of an installment or recurring plan.
type Repetition struct {
	Base
	UserID            string          `gorm:"type:uuid;not null;index" json:"user_id"`
	TotalInstallments int             `gorm:"not null" json:"total_installments"`
	RecurrenceType    RecurrenceType  `gorm:"not null" json:"recurrence_type"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	StartDate         time.Time       `gorm:"type:date;not null" json:"start_date"`
}
