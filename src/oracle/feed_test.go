package oracle

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name     string
		answer   decimal.Decimal
		decimals uint8
		want     decimal.Decimal
	}{
		{
			name:     "8-decimal feed scales up",
			answer:   decimal.New(2000, 8), // 2000 at 8 decimals
			decimals: 8,
			want:     decimal.New(2000, 18),
		},
		{
			name:     "18-decimal feed unchanged",
			answer:   decimal.New(1500, 18),
			decimals: 18,
			want:     decimal.New(1500, 18),
		},
		{
			name:     "sub-unit answer keeps precision",
			answer:   decimal.New(123456789, 0), // 1.23456789 at 8 decimals
			decimals: 8,
			want:     decimal.RequireFromString("1.23456789").Shift(18),
		},
		{
			name:     "more than 18 decimals scales down",
			answer:   decimal.New(5, 20), // 500 at 20 decimals
			decimals: 20,
			want:     decimal.New(5, 18),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Canonicalize(tc.answer, tc.decimals)
			require.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}
