package controller

import (
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// RiskFractionSafe converts a risk percentage into a fraction using a
// safe clamped percent in (0, 100]. If percent is out of range, it is
// automatically adjusted and logged.
func RiskFractionSafe(percent float64) decimal.Decimal {
	originalPercent := percent

	if percent <= 0 {
		percent = 1
		logger.WithFields(map[string]interface{}{
			"original_pct": originalPercent,
			"adjusted_pct": percent,
		}).Warn("Risk percent not positive, clamped to 1")
	}

	if percent > 100 {
		percent = 100
		logger.WithFields(map[string]interface{}{
			"original_pct": originalPercent,
			"adjusted_pct": percent,
		}).Warn("Risk percent above maximum, clamped to 100")
	}

	return decimal.NewFromFloat(percent).Div(decimal.NewFromInt(100))
}
