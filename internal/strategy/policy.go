package strategy

import "github.com/gabrielschull/TraderML/internal/types"

// Input is the market and sentiment state one decision is made from.
type Input struct {
	Signal    types.Signal
	Cash      float64
	LastPrice float64
	Qty       int
	LastTrade types.Side
}

// Decision is the policy's verdict for one iteration. A nil Intent means no
// trade. LiquidateFirst asks the gateway to close all open positions before
// the entry is submitted (direction flip).
type Decision struct {
	Intent         *types.OrderIntent
	LiquidateFirst bool
	Reason         string
}

// Decide maps a sentiment signal onto an order intent. The confidence gate
// is a strict greater-than: probability exactly at the threshold does not
// trade. At most one entry order is produced per call.
func Decide(in Input, p Params) Decision {
	if in.Cash <= in.LastPrice {
		return Decision{Reason: "insufficient_cash"}
	}
	if in.Qty <= 0 {
		return Decision{Reason: "zero_quantity"}
	}
	if in.Signal.Probability <= p.ConfidenceThreshold {
		return Decision{Reason: "below_confidence_threshold"}
	}

	switch in.Signal.Label {
	case types.Positive:
		return Decision{
			Intent:         shapeOrder(p, types.SideBuy, in.Qty, in.LastPrice),
			LiquidateFirst: in.LastTrade == types.SideSell,
			Reason:         "positive_sentiment",
		}
	case types.Negative:
		return Decision{
			Intent:         shapeOrder(p, types.SideSell, in.Qty, in.LastPrice),
			LiquidateFirst: in.LastTrade == types.SideBuy,
			Reason:         "negative_sentiment",
		}
	default:
		return Decision{Reason: "neutral_sentiment"}
	}
}

// shapeOrder builds the order-style variant for the chosen side: bracket
// entries carry both exit legs, limit entries a price and expiry, market
// entries neither.
func shapeOrder(p Params, side types.Side, qty int, lastPrice float64) *types.OrderIntent {
	intent := &types.OrderIntent{
		Symbol: p.Symbol,
		Side:   side,
		Qty:    qty,
		Style:  p.OrderStyle,
	}

	switch p.OrderStyle {
	case types.Bracket:
		if side == types.SideBuy {
			intent.Bracket = &types.BracketParams{
				TakeProfit: lastPrice * p.BracketBuyTakeProfit,
				StopLoss:   lastPrice * p.BracketBuyStopLoss,
			}
		} else {
			intent.Bracket = &types.BracketParams{
				TakeProfit: lastPrice * p.BracketSellTakeProfit,
				StopLoss:   lastPrice * p.BracketSellStopLoss,
			}
		}
	case types.Limit:
		multiplier := p.BuyLimitMultiplier
		if side == types.SideSell {
			multiplier = p.SellLimitMultiplier
		}
		intent.Limit = &types.LimitParams{
			LimitPrice: lastPrice * multiplier,
			Expiry:     p.LimitExpiry,
		}
	}

	return intent
}
