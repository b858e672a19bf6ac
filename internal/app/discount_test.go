package app

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name           string
		balance        int
		amount         float64
		rate           float64
		wantRedeemed   int
		wantDiscounted float64
		wantValue      float64
		wantResidual   int
	}{
		{
			name:           "balance below cap is fully redeemed",
			balance:        5000,
			amount:         125.00,
			rate:           200,
			wantRedeemed:   5000,
			wantDiscounted: 100.00,
			wantValue:      25.00,
			wantResidual:   0,
		},
		{
			name:           "zero balance pays full amount",
			balance:        0,
			amount:         20.00,
			rate:           200,
			wantRedeemed:   0,
			wantDiscounted: 20.00,
			wantValue:      0,
			wantResidual:   0,
		},
		{
			name:           "balance above cap is capped at payment value",
			balance:        30000,
			amount:         100.00,
			rate:           200,
			wantRedeemed:   20000,
			wantDiscounted: 0,
			wantValue:      100.00,
			wantResidual:   10000,
		},
		{
			name:           "small payment leaves most of the balance",
			balance:        1000,
			amount:         2.50,
			rate:           200,
			wantRedeemed:   500,
			wantDiscounted: 0,
			wantValue:      2.50,
			wantResidual:   500,
		},
		{
			name:           "negative balance treated as zero",
			balance:        -50,
			amount:         10.00,
			rate:           200,
			wantRedeemed:   0,
			wantDiscounted: 10.00,
			wantValue:      0,
			wantResidual:   0,
		},
		{
			name:           "non-positive rate falls back to default",
			balance:        5000,
			amount:         125.00,
			rate:           0,
			wantRedeemed:   5000,
			wantDiscounted: 100.00,
			wantValue:      25.00,
			wantResidual:   0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeDiscount(tc.balance, tc.amount, tc.rate)

			if got.RedeemedPoints != tc.wantRedeemed {
				t.Errorf("RedeemedPoints = %d, want %d", got.RedeemedPoints, tc.wantRedeemed)
			}
			if !almostEqual(got.DiscountedAmount, tc.wantDiscounted) {
				t.Errorf("DiscountedAmount = %f, want %f", got.DiscountedAmount, tc.wantDiscounted)
			}
			if !almostEqual(got.RedeemedValue, tc.wantValue) {
				t.Errorf("RedeemedValue = %f, want %f", got.RedeemedValue, tc.wantValue)
			}
			if got.ResidualBalance != tc.wantResidual {
				t.Errorf("ResidualBalance = %d, want %d", got.ResidualBalance, tc.wantResidual)
			}
		})
	}
}

func TestComputeDiscount_Bounds(t *testing.T) {
	balances := []int{0, 1, 199, 200, 1000, 5000, 25000, 1_000_000}
	amounts := []float64{0.01, 1, 19.99, 20, 125, 999.99}
	const rate = 200.0

	for _, balance := range balances {
		for _, amount := range amounts {
			got := ComputeDiscount(balance, amount, rate)

			if got.RedeemedPoints < 0 || got.RedeemedPoints > balance {
				t.Fatalf("balance=%d amount=%f: redeemed %d outside [0, balance]", balance, amount, got.RedeemedPoints)
			}
			if limit := int(math.Floor(amount * rate)); got.RedeemedPoints > limit {
				t.Fatalf("balance=%d amount=%f: redeemed %d exceeds cap %d", balance, amount, got.RedeemedPoints, limit)
			}
			if got.DiscountedAmount < 0 || got.DiscountedAmount > amount {
				t.Fatalf("balance=%d amount=%f: discounted %f outside [0, amount]", balance, amount, got.DiscountedAmount)
			}
			if got.ResidualBalance != balance-got.RedeemedPoints {
				t.Fatalf("balance=%d amount=%f: residual %d != balance-redeemed", balance, amount, got.ResidualBalance)
			}
		}
	}
}
