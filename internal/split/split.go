// Package split attributes parts of a transaction amount to relatives.
package split

import (
	"errors"
	"fmt"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/money"

	"github.com/shopspring/decimal"
)

// Validation errors.
var (
	ErrSumMismatch       = errors.New("split amounts do not add up to the transaction amount")
	ErrInvalidShare      = errors.New("split amount must be positive with at most two decimal places")
	ErrDuplicateRelative = errors.New("relative listed more than once")
	ErrMissingRelative   = errors.New("relative id is required")
)

// Share is the amount of a transaction attributed to one relative.
type Share struct {
	RelativeID string          `json:"relative_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// Validate checks that shares are well formed and sum exactly to total.
func Validate(total decimal.Decimal, shares []Share) error {
	seen := make(map[string]struct{}, len(shares))
	sum := decimal.Zero
	for _, s := range shares {
		if s.RelativeID == "" {
			return ErrMissingRelative
		}
		if _, dup := seen[s.RelativeID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRelative, s.RelativeID)
		}
		seen[s.RelativeID] = struct{}{}
		if !money.IsValidAmount(s.Amount) {
			return fmt.Errorf("%w: %s", ErrInvalidShare, s.Amount)
		}
		sum = sum.Add(s.Amount)
	}
	if !sum.Equal(total) {
		return fmt.Errorf("%w: got %s, want %s", ErrSumMismatch, sum.StringFixed(money.Places), total.StringFixed(money.Places))
	}
	return nil
}

// Repeat returns the same shares for each of n occurrences. Recurring plans
// charge the full amount every time, so shares are not divided.
func Repeat(shares []Share, n int) [][]Share {
	out := make([][]Share, n)
	for i := range out {
		out[i] = append([]Share(nil), shares...)
	}
	return out
}

// Installments divides every share over n installments whose amounts come
// from money.Divide on the shares' total. Row k holds the shares of
// installment k+1; each row sums to that installment's amount and each
// relative's column sums to its original share.
//
// Installments 2..n give every relative share/n truncated to cents. The cents
// those rows still miss are drawn from a pool where every relative appears once
// per cent of its own remainder, so no relative is over-drawn. Installment 1
// takes whatever is left.
func Installments(shares []Share, n int) [][]Share {
	if n <= 0 {
		return nil
	}

	cents := make([]int64, len(shares))
	base := make([]int64, len(shares))
	var pool []int
	var remainder int64
	for r, s := range shares {
		cents[r] = money.ToCents(s.Amount)
		base[r] = cents[r] / int64(n)
		rem := cents[r] - base[r]*int64(n)
		remainder += rem
		for i := int64(0); i < rem; i++ {
			pool = append(pool, r)
		}
	}
	deficit := int(remainder / int64(n))

	rows := make([][]int64, n)
	allocated := make([]int64, len(shares))
	next := 0
	for k := 1; k < n; k++ {
		row := append([]int64(nil), base...)
		for i := 0; i < deficit; i++ {
			row[pool[next]]++
			next++
		}
		for r := range row {
			allocated[r] += row[r]
		}
		rows[k] = row
	}

	first := make([]int64, len(shares))
	for r := range shares {
		first[r] = cents[r] - allocated[r]
	}
	rows[0] = first

	out := make([][]Share, n)
	for k, row := range rows {
		out[k] = make([]Share, len(shares))
		for r, c := range row {
			out[k][r] = Share{RelativeID: shares[r].RelativeID, Amount: money.FromCents(c)}
		}
	}
	return out
}
