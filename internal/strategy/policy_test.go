package strategy

import (
	"math"
	"testing"

	"github.com/gabrielschull/TraderML/internal/types"
)

func testInput(label types.Label, probability float64) Input {
	return Input{
		Signal:    types.Signal{Probability: probability, Label: label},
		Cash:      10000,
		LastPrice: 100,
		Qty:       50,
		LastTrade: types.SideNone,
	}
}

func TestDecideNoTradeWhenCashBelowPrice(t *testing.T) {
	in := testInput(types.Positive, 0.9995)
	in.Cash = 90
	in.LastPrice = 100

	dec := Decide(in, Defaults())
	if dec.Intent != nil {
		t.Fatalf("expected no intent when cash <= last price, got %+v", dec.Intent)
	}
	if dec.Reason != "insufficient_cash" {
		t.Errorf("expected insufficient_cash reason, got %s", dec.Reason)
	}
}

func TestDecideNoTradeAtExactThreshold(t *testing.T) {
	in := testInput(types.Positive, 0.999)

	dec := Decide(in, Defaults())
	if dec.Intent != nil {
		t.Fatalf("probability equal to threshold must not trade, got %+v", dec.Intent)
	}
	if dec.LiquidateFirst {
		t.Error("no liquidation expected below threshold")
	}
}

func TestDecideNeutralNeverTrades(t *testing.T) {
	dec := Decide(testInput(types.Neutral, 1.0), Defaults())
	if dec.Intent != nil {
		t.Fatalf("neutral sentiment must not trade, got %+v", dec.Intent)
	}
	if dec.Reason != "neutral_sentiment" {
		t.Errorf("expected neutral_sentiment reason, got %s", dec.Reason)
	}
}

func TestDecideZeroQuantityHolds(t *testing.T) {
	in := testInput(types.Positive, 0.9995)
	in.Qty = 0

	dec := Decide(in, Defaults())
	if dec.Intent != nil {
		t.Fatalf("zero quantity must not trade, got %+v", dec.Intent)
	}
}

func TestDecidePositiveFlipLiquidatesFirst(t *testing.T) {
	in := testInput(types.Positive, 0.9995)
	in.LastTrade = types.SideSell

	dec := Decide(in, Defaults())
	if dec.Intent == nil {
		t.Fatal("expected a buy intent")
	}
	if !dec.LiquidateFirst {
		t.Error("expected liquidation before flipping from sell to buy")
	}
	if dec.Intent.Side != types.SideBuy {
		t.Errorf("expected buy side, got %s", dec.Intent.Side)
	}
	if dec.Intent.Qty != 50 {
		t.Errorf("expected qty 50, got %d", dec.Intent.Qty)
	}
}

func TestDecideNegativeNoPriorTradeSkipsLiquidation(t *testing.T) {
	dec := Decide(testInput(types.Negative, 0.9995), Defaults())
	if dec.Intent == nil {
		t.Fatal("expected a sell intent")
	}
	if dec.LiquidateFirst {
		t.Error("no liquidation expected when last trade is none")
	}
	if dec.Intent.Side != types.SideSell {
		t.Errorf("expected sell side, got %s", dec.Intent.Side)
	}
}

func TestDecideSameDirectionSkipsLiquidation(t *testing.T) {
	in := testInput(types.Positive, 0.9995)
	in.LastTrade = types.SideBuy

	dec := Decide(in, Defaults())
	if dec.Intent == nil {
		t.Fatal("expected a buy intent")
	}
	if dec.LiquidateFirst {
		t.Error("re-entering the same direction must not liquidate")
	}
}

func TestDecideBracketPrices(t *testing.T) {
	p := Defaults()
	in := testInput(types.Positive, 0.9995)

	dec := Decide(in, p)
	if dec.Intent == nil || dec.Intent.Bracket == nil {
		t.Fatal("expected a bracket intent")
	}
	if got, want := dec.Intent.Bracket.TakeProfit, 100*p.BracketBuyTakeProfit; got != want {
		t.Errorf("buy take profit = %f, want %f", got, want)
	}
	if got, want := dec.Intent.Bracket.StopLoss, 100*p.BracketBuyStopLoss; got != want {
		t.Errorf("buy stop loss = %f, want %f", got, want)
	}

	dec = Decide(testInput(types.Negative, 0.9995), p)
	if dec.Intent == nil || dec.Intent.Bracket == nil {
		t.Fatal("expected a bracket intent")
	}
	if got, want := dec.Intent.Bracket.TakeProfit, 100*p.BracketSellTakeProfit; got != want {
		t.Errorf("sell take profit = %f, want %f", got, want)
	}
	if got, want := dec.Intent.Bracket.StopLoss, 100*p.BracketSellStopLoss; got != want {
		t.Errorf("sell stop loss = %f, want %f", got, want)
	}
}

func TestDecideMarketCarriesNoPriceParams(t *testing.T) {
	p := Defaults()
	p.OrderStyle = types.Market

	dec := Decide(testInput(types.Positive, 0.9995), p)
	if dec.Intent == nil {
		t.Fatal("expected a market intent")
	}
	if dec.Intent.Style != types.Market {
		t.Errorf("expected market style, got %s", dec.Intent.Style)
	}
	if dec.Intent.Bracket != nil || dec.Intent.Limit != nil {
		t.Error("market intent must not carry bracket or limit params")
	}
}

func TestDecideLimitPriceAndExpiry(t *testing.T) {
	p := Defaults()
	p.OrderStyle = types.Limit
	p.BuyLimitMultiplier = 0.99
	p.SellLimitMultiplier = 1.01
	p.LimitExpiry = types.ExpiryGTC

	dec := Decide(testInput(types.Positive, 0.9995), p)
	if dec.Intent == nil || dec.Intent.Limit == nil {
		t.Fatal("expected a limit intent")
	}
	if math.Abs(dec.Intent.Limit.LimitPrice-99) > 1e-9 {
		t.Errorf("buy limit price = %f, want 99", dec.Intent.Limit.LimitPrice)
	}
	if dec.Intent.Limit.Expiry != types.ExpiryGTC {
		t.Errorf("expected gtc expiry, got %s", dec.Intent.Limit.Expiry)
	}

	dec = Decide(testInput(types.Negative, 0.9995), p)
	if dec.Intent == nil || dec.Intent.Limit == nil {
		t.Fatal("expected a limit intent")
	}
	if math.Abs(dec.Intent.Limit.LimitPrice-101) > 1e-9 {
		t.Errorf("sell limit price = %f, want 101", dec.Intent.Limit.LimitPrice)
	}
}
