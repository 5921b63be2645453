package strategy

import "math"

// PositionSize returns the number of whole shares the configured cash
// fraction affords at the last traded price. The result may be 0; callers
// treat 0 as "no trade".
func PositionSize(cash, lastPrice, cashAtRisk float64) int {
	if cash <= 0 || lastPrice <= 0 || cashAtRisk <= 0 {
		return 0
	}
	return int(math.Floor(cash * cashAtRisk / lastPrice))
}
