package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParse(t *testing.T) {
	got, err := Parse("33.33")
	require.NoError(t, err)
	assert.True(t, got.Equal(d("33.33")))

	_, err = Parse("1.005")
	assert.Error(t, err)

	_, err = Parse("abc")
	assert.Error(t, err)
}

func TestIsValidAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0.01", true},
		{"100", true},
		{"0", false},
		{"-5.00", false},
		{"10.001", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAmount(d(tt.in)))
		})
	}
}

func TestDivide(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  []string
	}{
		{"even", "300.00", 3, []string{"100", "100", "100"}},
		{"remainder_on_first", "100.00", 3, []string{"33.34", "33.33", "33.33"}},
		{"truncates_not_rounds", "200.00", 3, []string{"66.68", "66.66", "66.66"}},
		{"single", "19.99", 1, []string{"19.99"}},
		{"cents_only", "0.05", 2, []string{"0.03", "0.02"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := Divide(d(tt.total), tt.n)
			require.Len(t, parts, tt.n)
			for i, want := range tt.want {
				assert.True(t, parts[i].Equal(d(want)), "part %d: got %s want %s", i, parts[i], want)
			}
			assert.True(t, Sum(parts...).Equal(d(tt.total)))
		})
	}
}

func TestDivideRejectsNonPositiveCount(t *testing.T) {
	assert.Nil(t, Divide(d("10"), 0))
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(3333), ToCents(d("33.33")))
	assert.True(t, FromCents(6667).Equal(d("66.67")))
}
