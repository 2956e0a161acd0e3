package connectors

import (
	"github.com/shopspring/decimal"

	"ordergateway/src/model"
)

// buildBracketLegs constructs the three linked legs of a bracket order.
// The entry leg does not transmit; the two exit legs do, so the venue
// holds the whole group until the last leg arrives and then releases it
// atomically. Parent ids are filled in after the entry leg is
// acknowledged, since order ids are venue-assigned.
func buildBracketLegs(side string, qty int64, limit, takeProfit, stopLoss decimal.Decimal) []model.BracketLeg {
	exitAction := model.SideSell
	if side == model.SideSell {
		exitAction = model.SideBuy
	}

	return []model.BracketLeg{
		{
			Role:       model.LegEntry,
			Action:     side,
			OrderType:  model.OrderTypeLimit,
			Quantity:   qty,
			LimitPrice: &limit,
			Transmit:   false,
		},
		{
			Role:      model.LegStop,
			Action:    exitAction,
			OrderType: model.OrderTypeStop,
			Quantity:  qty,
			StopPrice: &stopLoss,
			Transmit:  true,
		},
		{
			Role:       model.LegTakeProfit,
			Action:     exitAction,
			OrderType:  model.OrderTypeLimit,
			Quantity:   qty,
			LimitPrice: &takeProfit,
			Transmit:   true,
		},
	}
}
