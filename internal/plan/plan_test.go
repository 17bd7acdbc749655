package plan

import (
	"testing"
	"time"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestExpandSingle(t *testing.T) {
	occ, err := DefaultPolicy().Expand(Request{
		Total:     d("49.90"),
		Plan:      models.PaymentPlanSingle,
		StartDate: time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, "1/1", occ[0].Label())
	assert.True(t, occ[0].Amount.Equal(d("49.90")))
	assert.Equal(t, date(2026, 3, 10), occ[0].PaymentDate)
}

func TestExpandInstallments(t *testing.T) {
	occ, err := DefaultPolicy().Expand(Request{
		Total:        d("100.00"),
		Plan:         models.PaymentPlanInstallment,
		Installments: 3,
		StartDate:    date(2026, 1, 31),
	})
	require.NoError(t, err)
	require.Len(t, occ, 3)

	assert.True(t, occ[0].Amount.Equal(d("33.34")))
	assert.True(t, occ[1].Amount.Equal(d("33.33")))
	assert.True(t, occ[2].Amount.Equal(d("33.33")))
	assert.True(t, TotalOf(occ).Equal(d("100.00")))

	assert.Equal(t, date(2026, 1, 31), occ[0].PaymentDate)
	assert.Equal(t, date(2026, 2, 28), occ[1].PaymentDate)
	assert.Equal(t, date(2026, 3, 31), occ[2].PaymentDate)

	assert.Equal(t, "1/3", occ[0].Label())
	assert.Equal(t, "3/3", occ[2].Label())
}

func TestExpandInstallmentsEvenSplit(t *testing.T) {
	occ, err := DefaultPolicy().Expand(Request{
		Total:        d("300.00"),
		Plan:         models.PaymentPlanInstallment,
		Installments: 3,
		StartDate:    date(2026, 10, 5),
	})
	require.NoError(t, err)
	for _, o := range occ {
		assert.True(t, o.Amount.Equal(d("100")))
	}
}

func TestExpandRecurring(t *testing.T) {
	policy := DefaultPolicy()
	start := date(2026, 1, 1)

	tests := []struct {
		name       string
		recurrence models.RecurrenceType
		count      int
		second     time.Time
	}{
		{"weekly", models.RecurrenceWeekly, 24, date(2026, 1, 8)},
		{"biweekly", models.RecurrenceBiweekly, 24, date(2026, 1, 16)},
		{"monthly", models.RecurrenceMonthly, 24, date(2026, 2, 1)},
		{"annual", models.RecurrenceAnnual, 4, date(2027, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occ, err := policy.Expand(Request{
				Total:      d("59.90"),
				Plan:       models.PaymentPlanRecurring,
				Recurrence: tt.recurrence,
				StartDate:  start,
			})
			require.NoError(t, err)
			require.Len(t, occ, tt.count)
			assert.Equal(t, tt.second, occ[1].PaymentDate)
			for _, o := range occ {
				assert.True(t, o.Amount.Equal(d("59.90")), "recurring amounts are not divided")
			}
		})
	}
}

func TestExpandRecurringUsesPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.RecurringOccurrences = 6

	occ, err := policy.Expand(Request{
		Total:      d("10"),
		Plan:       models.PaymentPlanRecurring,
		Recurrence: models.RecurrenceMonthly,
		StartDate:  date(2026, 5, 31),
	})
	require.NoError(t, err)
	require.Len(t, occ, 6)
	assert.Equal(t, date(2026, 6, 30), occ[1].PaymentDate)
	assert.Equal(t, date(2026, 7, 31), occ[2].PaymentDate)
}

func TestExpandAnnualLeapDay(t *testing.T) {
	occ, err := DefaultPolicy().Expand(Request{
		Total:      d("120"),
		Plan:       models.PaymentPlanRecurring,
		Recurrence: models.RecurrenceAnnual,
		StartDate:  date(2028, 2, 29),
	})
	require.NoError(t, err)
	assert.Equal(t, date(2029, 2, 28), occ[1].PaymentDate)
	assert.Equal(t, date(2031, 2, 28), occ[3].PaymentDate)
}

func TestExpandValidation(t *testing.T) {
	policy := DefaultPolicy()
	start := date(2026, 1, 1)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"zero_amount", Request{Total: d("0"), Plan: models.PaymentPlanSingle, StartDate: start}, ErrInvalidAmount},
		{"three_decimals", Request{Total: d("1.001"), Plan: models.PaymentPlanSingle, StartDate: start}, ErrInvalidAmount},
		{"missing_date", Request{Total: d("1"), Plan: models.PaymentPlanSingle}, ErrMissingStartDate},
		{"recurring_without_interval", Request{Total: d("1"), Plan: models.PaymentPlanRecurring, Recurrence: models.RecurrenceNone, StartDate: start}, ErrInvalidRecurrence},
		{"single_with_weekly", Request{Total: d("1"), Plan: models.PaymentPlanSingle, Recurrence: models.RecurrenceWeekly, StartDate: start}, ErrInvalidRecurrence},
		{"installment_annual", Request{Total: d("1"), Plan: models.PaymentPlanInstallment, Installments: 2, Recurrence: models.RecurrenceAnnual, StartDate: start}, ErrInvalidRecurrence},
		{"zero_installments", Request{Total: d("1"), Plan: models.PaymentPlanInstallment, StartDate: start}, ErrInvalidInstallments},
		{"too_many_installments", Request{Total: d("1000"), Plan: models.PaymentPlanInstallment, Installments: 121, StartDate: start}, ErrInvalidInstallments},
		{"sub_cent_installment", Request{Total: d("0.05"), Plan: models.PaymentPlanInstallment, Installments: 10, StartDate: start}, ErrInstallmentTooSmall},
		{"unknown_plan", Request{Total: d("1"), Plan: "barter", StartDate: start}, ErrUnknownPlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := policy.Expand(tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, date(2026, 2, 28), AddMonths(date(2026, 1, 31), 1))
	assert.Equal(t, date(2024, 2, 29), AddMonths(date(2024, 1, 31), 1))
	assert.Equal(t, date(2027, 1, 15), AddMonths(date(2026, 12, 15), 1))
	assert.Equal(t, date(2026, 11, 30), AddMonths(date(2026, 12, 31), -1))
}

func TestClampedDate(t *testing.T) {
	assert.Equal(t, date(2026, 4, 30), ClampedDate(2026, 4, 31))
	assert.Equal(t, date(2027, 1, 10), ClampedDate(2026, 13, 10))
}
