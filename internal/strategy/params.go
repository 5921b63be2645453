package strategy

import (
	"errors"
	"fmt"

	"github.com/gabrielschull/TraderML/internal/types"
)

// ErrInvalid marks configuration rejected by Validate, so callers can
// distinguish a bad payload from an internal failure.
var ErrInvalid = errors.New("invalid strategy parameters")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

// Params is the full configuration of one strategy instance. Every field
// has a default, so an instance can be created from a partial payload.
type Params struct {
	Symbol                string           `json:"symbol" yaml:"symbol"`
	CashAtRisk            float64          `json:"cash_at_risk" yaml:"cash_at_risk"`
	SentimentDays         int              `json:"sentiment_time_to_consider" yaml:"sentiment_time_to_consider"`
	ConfidenceThreshold   float64          `json:"sentiment_confidence_threshold" yaml:"sentiment_confidence_threshold"`
	OrderStyle            types.OrderStyle `json:"order_type" yaml:"order_type"`
	BracketBuyTakeProfit  float64          `json:"bracket_buy_take_profit_multiplier" yaml:"bracket_buy_take_profit_multiplier"`
	BracketBuyStopLoss    float64          `json:"bracket_buy_stop_loss_multiplier" yaml:"bracket_buy_stop_loss_multiplier"`
	BracketSellTakeProfit float64          `json:"bracket_sell_take_profit_multiplier" yaml:"bracket_sell_take_profit_multiplier"`
	BracketSellStopLoss   float64          `json:"bracket_sell_stop_loss_multiplier" yaml:"bracket_sell_stop_loss_multiplier"`
	PositionSize          float64          `json:"position_size" yaml:"position_size"`
	BuyLimitMultiplier    float64          `json:"buy_limit_multiplier" yaml:"buy_limit_multiplier"`
	SellLimitMultiplier   float64          `json:"sell_limit_multiplier" yaml:"sell_limit_multiplier"`
	LimitExpiry           types.Expiry     `json:"limit_order_expiry" yaml:"limit_order_expiry"`
}

// Defaults returns the baseline configuration used to fill fields a partial
// payload leaves unset.
func Defaults() Params {
	return Params{
		Symbol:                "SPY",
		CashAtRisk:            0.5,
		SentimentDays:         3,
		ConfidenceThreshold:   0.999,
		OrderStyle:            types.Bracket,
		BracketBuyTakeProfit:  1.20,
		BracketBuyStopLoss:    0.95,
		BracketSellTakeProfit: 0.80,
		BracketSellStopLoss:   1.05,
		PositionSize:          0.5,
		BuyLimitMultiplier:    1.00,
		SellLimitMultiplier:   1.00,
		LimitExpiry:           types.ExpiryDay,
	}
}

// Patch is a partial configuration update. Nil fields leave the prior value
// unchanged.
type Patch struct {
	Symbol                *string           `json:"symbol,omitempty"`
	CashAtRisk            *float64          `json:"cash_at_risk,omitempty"`
	SentimentDays         *int              `json:"sentiment_time_to_consider,omitempty"`
	ConfidenceThreshold   *float64          `json:"sentiment_confidence_threshold,omitempty"`
	OrderStyle            *types.OrderStyle `json:"order_type,omitempty"`
	BracketBuyTakeProfit  *float64          `json:"bracket_buy_take_profit_multiplier,omitempty"`
	BracketBuyStopLoss    *float64          `json:"bracket_buy_stop_loss_multiplier,omitempty"`
	BracketSellTakeProfit *float64          `json:"bracket_sell_take_profit_multiplier,omitempty"`
	BracketSellStopLoss   *float64          `json:"bracket_sell_stop_loss_multiplier,omitempty"`
	PositionSize          *float64          `json:"position_size,omitempty"`
	BuyLimitMultiplier    *float64          `json:"buy_limit_multiplier,omitempty"`
	SellLimitMultiplier   *float64          `json:"sell_limit_multiplier,omitempty"`
	LimitExpiry           *types.Expiry     `json:"limit_order_expiry,omitempty"`
}

// AsPatch converts a full parameter set into a patch that sets every
// field, for seeding a controller from a config file.
func (p Params) AsPatch() Patch {
	return Patch{
		Symbol:                &p.Symbol,
		CashAtRisk:            &p.CashAtRisk,
		SentimentDays:         &p.SentimentDays,
		ConfidenceThreshold:   &p.ConfidenceThreshold,
		OrderStyle:            &p.OrderStyle,
		BracketBuyTakeProfit:  &p.BracketBuyTakeProfit,
		BracketBuyStopLoss:    &p.BracketBuyStopLoss,
		BracketSellTakeProfit: &p.BracketSellTakeProfit,
		BracketSellStopLoss:   &p.BracketSellStopLoss,
		PositionSize:          &p.PositionSize,
		BuyLimitMultiplier:    &p.BuyLimitMultiplier,
		SellLimitMultiplier:   &p.SellLimitMultiplier,
		LimitExpiry:           &p.LimitExpiry,
	}
}

// Merge applies patch on top of base, field by field, and returns the
// result. Unset patch fields keep the base value.
func Merge(base Params, patch Patch) Params {
	merged := base
	if patch.Symbol != nil {
		merged.Symbol = *patch.Symbol
	}
	if patch.CashAtRisk != nil {
		merged.CashAtRisk = *patch.CashAtRisk
	}
	if patch.SentimentDays != nil {
		merged.SentimentDays = *patch.SentimentDays
	}
	if patch.ConfidenceThreshold != nil {
		merged.ConfidenceThreshold = *patch.ConfidenceThreshold
	}
	if patch.OrderStyle != nil {
		merged.OrderStyle = *patch.OrderStyle
	}
	if patch.BracketBuyTakeProfit != nil {
		merged.BracketBuyTakeProfit = *patch.BracketBuyTakeProfit
	}
	if patch.BracketBuyStopLoss != nil {
		merged.BracketBuyStopLoss = *patch.BracketBuyStopLoss
	}
	if patch.BracketSellTakeProfit != nil {
		merged.BracketSellTakeProfit = *patch.BracketSellTakeProfit
	}
	if patch.BracketSellStopLoss != nil {
		merged.BracketSellStopLoss = *patch.BracketSellStopLoss
	}
	if patch.PositionSize != nil {
		merged.PositionSize = *patch.PositionSize
	}
	if patch.BuyLimitMultiplier != nil {
		merged.BuyLimitMultiplier = *patch.BuyLimitMultiplier
	}
	if patch.SellLimitMultiplier != nil {
		merged.SellLimitMultiplier = *patch.SellLimitMultiplier
	}
	if patch.LimitExpiry != nil {
		merged.LimitExpiry = *patch.LimitExpiry
	}
	return merged
}

// Validate checks the merged configuration before it replaces the live one.
// Bracket multiplier ordering (buy TP above entry, buy SL below, and the
// mirror for sells) is a convention, not a hard rule, so only positivity is
// enforced there.
func (p Params) Validate() error {
	if p.Symbol == "" {
		return invalidf("symbol cannot be empty")
	}
	if p.CashAtRisk <= 0 || p.CashAtRisk > 1 {
		return invalidf("cash_at_risk must be in (0,1], got %.4f", p.CashAtRisk)
	}
	if p.SentimentDays < 0 {
		return invalidf("sentiment_time_to_consider must be >= 0, got %d", p.SentimentDays)
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return invalidf("sentiment_confidence_threshold must be in [0,1], got %.4f", p.ConfidenceThreshold)
	}
	switch p.OrderStyle {
	case types.Bracket, types.Market, types.Limit:
	default:
		return invalidf("order_type must be 'bracket', 'market', or 'limit', got '%s'", p.OrderStyle)
	}
	for name, m := range map[string]float64{
		"bracket_buy_take_profit_multiplier":  p.BracketBuyTakeProfit,
		"bracket_buy_stop_loss_multiplier":    p.BracketBuyStopLoss,
		"bracket_sell_take_profit_multiplier": p.BracketSellTakeProfit,
		"bracket_sell_stop_loss_multiplier":   p.BracketSellStopLoss,
		"buy_limit_multiplier":                p.BuyLimitMultiplier,
		"sell_limit_multiplier":               p.SellLimitMultiplier,
	} {
		if m <= 0 {
			return invalidf("%s must be > 0, got %.4f", name, m)
		}
	}
	if p.PositionSize <= 0 || p.PositionSize > 1 {
		return invalidf("position_size must be in (0,1], got %.4f", p.PositionSize)
	}
	switch p.LimitExpiry {
	case types.ExpiryDay, types.ExpiryGTC:
	default:
		return invalidf("limit_order_expiry must be 'day' or 'gtc', got '%s'", p.LimitExpiry)
	}
	return nil
}
