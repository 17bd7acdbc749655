// Package plan expands a purchase into its dated occurrences: a single
// payment, n installments of a divided total, or a fixed number of repeats of
// a recurring amount.
package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/money"

	"github.com/shopspring/decimal"
)

// Validation errors returned by Expand.
var (
	ErrInvalidAmount       = errors.New("amount must be positive with at most two decimal places")
	ErrMissingStartDate    = errors.New("start date is required")
	ErrInvalidInstallments = errors.New("installment count out of range")
	ErrInvalidRecurrence   = errors.New("recurrence type does not match payment plan")
	ErrUnknownPlan         = errors.New("unknown payment plan")
	ErrInstallmentTooSmall = errors.New("installment amount would be less than one cent")
)

// Policy holds the tunable constants of plan expansion.
type Policy struct {
	// AnnualOccurrences is how many occurrences an annual recurring plan gets.
	AnnualOccurrences int
	// RecurringOccurrences is how many occurrences any other recurring plan gets.
	RecurringOccurrences int
	// BiweeklyDays is the interval of a biweekly recurrence.
	BiweeklyDays    int
	MaxInstallments int
}

// DefaultPolicy returns the stock expansion constants.
func DefaultPolicy() Policy {
	return Policy{
		AnnualOccurrences:    4,
		RecurringOccurrences: 24,
		BiweeklyDays:         15,
		MaxInstallments:      120,
	}
}

// Request describes a purchase to expand.
type Request struct {
	Total        decimal.Decimal
	Plan         models.PaymentPlan
	Installments int
	Recurrence   models.RecurrenceType
	StartDate    time.Time
}

// Occurrence is one dated payment of a plan.
type Occurrence struct {
	Number      int
	Count       int
	Amount      decimal.Decimal
	PaymentDate time.Time
}

// Label renders the occurrence as "k/n".
func (o Occurrence) Label() string {
	return fmt.Sprintf("%d/%d", o.Number, o.Count)
}

// Count returns how many occurrences req expands to.
func (p Policy) Count(req Request) (int, error) {
	switch req.Plan {
	case models.PaymentPlanSingle:
		if !isNone(req.Recurrence) {
			return 0, ErrInvalidRecurrence
		}
		return 1, nil
	case models.PaymentPlanInstallment:
		if !isNone(req.Recurrence) && req.Recurrence != models.RecurrenceMonthly {
			return 0, ErrInvalidRecurrence
		}
		if req.Installments < 1 || req.Installments > p.MaxInstallments {
			return 0, fmt.Errorf("%w: %d (max %d)", ErrInvalidInstallments, req.Installments, p.MaxInstallments)
		}
		return req.Installments, nil
	case models.PaymentPlanRecurring:
		switch req.Recurrence {
		case models.RecurrenceAnnual:
			return p.AnnualOccurrences, nil
		case models.RecurrenceWeekly, models.RecurrenceBiweekly, models.RecurrenceMonthly:
			return p.RecurringOccurrences, nil
		default:
			return 0, ErrInvalidRecurrence
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPlan, req.Plan)
	}
}

// Expand turns req into its occurrences. Installment plans divide the total
// (the first occurrence absorbs the rounding remainder); recurring plans repeat
// the full amount.
func (p Policy) Expand(req Request) ([]Occurrence, error) {
	if !money.IsValidAmount(req.Total) {
		return nil, ErrInvalidAmount
	}
	if req.StartDate.IsZero() {
		return nil, ErrMissingStartDate
	}

	count, err := p.Count(req)
	if err != nil {
		return nil, err
	}

	var amounts []decimal.Decimal
	if req.Plan == models.PaymentPlanInstallment {
		amounts = money.Divide(req.Total, count)
		if !amounts[count-1].IsPositive() {
			return nil, ErrInstallmentTooSmall
		}
	} else {
		amounts = make([]decimal.Decimal, count)
		for i := range amounts {
			amounts[i] = req.Total
		}
	}

	start := Day(req.StartDate)
	occurrences := make([]Occurrence, count)
	for i := range occurrences {
		occurrences[i] = Occurrence{
			Number:      i + 1,
			Count:       count,
			Amount:      amounts[i],
			PaymentDate: p.DateOf(start, req.Plan, req.Recurrence, i),
		}
	}
	return occurrences, nil
}

// DateOf returns the date of the occurrence at zero-based index i. Dates are
// computed from start rather than from the previous occurrence so the day of
// month survives short months.
func (p Policy) DateOf(start time.Time, plan models.PaymentPlan, recurrence models.RecurrenceType, i int) time.Time {
	if plan == models.PaymentPlanInstallment {
		return AddMonths(start, i)
	}

	switch recurrence {
	case models.RecurrenceWeekly:
		return start.AddDate(0, 0, 7*i)
	case models.RecurrenceBiweekly:
		return start.AddDate(0, 0, p.BiweeklyDays*i)
	case models.RecurrenceMonthly:
		return AddMonths(start, i)
	case models.RecurrenceAnnual:
		return AddMonths(start, 12*i)
	default:
		return start
	}
}

// TotalOf sums the occurrence amounts.
func TotalOf(occurrences []Occurrence) decimal.Decimal {
	total := decimal.Zero
	for _, o := range occurrences {
		total = total.Add(o.Amount)
	}
	return total
}

func isNone(r models.RecurrenceType) bool {
	return r == "" || r == models.RecurrenceNone
}
