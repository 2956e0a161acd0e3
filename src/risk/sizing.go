package risk

import (
	"github.com/shopspring/decimal"

	"ordergateway/src/model"
)

// RewardRiskRatio is the fixed distance of the take-profit target from
// entry, expressed in multiples of the stop distance. Not configurable.
var RewardRiskRatio = decimal.NewFromInt(2)

// Sizing is the result of risk-based position sizing for one signal.
type Sizing struct {
	Quantity   int64
	TakeProfit decimal.Decimal
	RiskAmount decimal.Decimal
}

// Size computes the position size and take-profit for a signal.
//
// riskAmount = accountSize * riskFraction, quantity is riskAmount divided
// by the stop distance, floored, with a hard floor of one share so a tiny
// risk budget still trades. A zero stop distance is a malformed signal,
// not a division error: quantity is one and the take-profit collapses
// onto the entry.
func Size(side string, entry, stop, riskFraction, accountSize decimal.Decimal) Sizing {
	riskAmount := accountSize.Mul(riskFraction)
	stopDistance := entry.Sub(stop).Abs()

	qty := int64(1)
	if stopDistance.IsPositive() {
		floored := riskAmount.Div(stopDistance).Floor().IntPart()
		if floored > qty {
			qty = floored
		}
	}

	target := stopDistance.Mul(RewardRiskRatio)
	var takeProfit decimal.Decimal
	if side == model.SideSell {
		takeProfit = entry.Sub(target)
	} else {
		takeProfit = entry.Add(target)
	}

	return Sizing{
		Quantity:   qty,
		TakeProfit: takeProfit,
		RiskAmount: riskAmount,
	}
}
