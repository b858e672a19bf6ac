package app

import (
	"math"

	"github.com/bryzn-microservice-project/payment-service/internal/domain"
)

// DefaultRedeemRate converts currency units to points: 200 points buy one
// unit of discount.
const DefaultRedeemRate = 200.0

// ComputeDiscount applies a point-based discount to a payment amount.
//
// The redemption is capped at min(balance, floor(amount*rate)) so a customer
// can never spend more points than they hold, nor more than the payment is
// worth. The discounted amount is floored at zero. A zero or missing balance
// yields the identity outcome: no redemption, full amount due. Pure and
// deterministic; no I/O.
func ComputeDiscount(balance int, amount float64, rate float64) domain.DiscountOutcome {
	if rate <= 0 {
		rate = DefaultRedeemRate
	}
	if balance <= 0 || amount <= 0 {
		if balance < 0 {
			balance = 0
		}
		return domain.DiscountOutcome{
			Balance:          balance,
			DiscountedAmount: amount,
			ResidualBalance:  balance,
		}
	}

	capped := int(math.Floor(amount * rate))
	if balance < capped {
		capped = balance
	}

	redeemedValue := float64(capped) / rate
	discounted := amount - redeemedValue
	if discounted < 0 {
		discounted = 0
	}

	return domain.DiscountOutcome{
		Balance:          balance,
		RedeemedPoints:   capped,
		DiscountedAmount: discounted,
		RedeemedValue:    redeemedValue,
		ResidualBalance:  balance - capped,
	}
}
