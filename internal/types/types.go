package types

import "time"

// Side is the direction of a submitted order. SideNone marks a strategy
// instance that has not traded yet.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Label is the sentiment class returned by the classifier.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// OrderStyle selects how an entry order is shaped.
type OrderStyle string

const (
	Bracket OrderStyle = "bracket"
	Market  OrderStyle = "market"
	Limit   OrderStyle = "limit"
)

// Expiry is the time-in-force of a limit order.
type Expiry string

const (
	ExpiryDay Expiry = "day"
	ExpiryGTC Expiry = "gtc"
)

// Signal is the per-iteration sentiment reading.
type Signal struct {
	Probability float64 `json:"probability"`
	Label       Label   `json:"label"`
}

// BracketParams carries the exit legs of a bracket entry.
type BracketParams struct {
	TakeProfit float64 `json:"take_profit"`
	StopLoss   float64 `json:"stop_loss"`
}

// LimitParams carries the price and time-in-force of a limit entry.
type LimitParams struct {
	LimitPrice float64 `json:"limit_price"`
	Expiry     Expiry  `json:"expiry"`
}

// OrderIntent is an order the policy wants submitted. Exactly one of
// Bracket/Limit is set, matching Style; a market order carries neither.
type OrderIntent struct {
	Symbol  string         `json:"symbol"`
	Side    Side           `json:"side"`
	Qty     int            `json:"qty"`
	Style   OrderStyle     `json:"style"`
	Bracket *BracketParams `json:"bracket,omitempty"`
	Limit   *LimitParams   `json:"limit,omitempty"`
}

// OrderRef identifies an order accepted by the brokerage.
type OrderRef struct {
	ID     string `json:"order_id"`
	Status string `json:"status"`
}

// Bar is one daily trading bar used by the backtest replay.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// BacktestTrade is one fill recorded during a backtest replay.
type BacktestTrade struct {
	Time  time.Time `json:"time"`
	Side  Side      `json:"side"`
	Qty   int       `json:"qty"`
	Price float64   `json:"price"`
	Note  string    `json:"note,omitempty"`
}

// BacktestResult summarizes one backtest run.
type BacktestResult struct {
	Symbol        string          `json:"symbol"`
	Start         time.Time       `json:"start_date"`
	End           time.Time       `json:"end_date"`
	Days          int             `json:"days"`
	InitialEquity float64         `json:"initial_equity"`
	FinalEquity   float64         `json:"final_equity"`
	ReturnPct     float64         `json:"return_pct"`
	Trades        []BacktestTrade `json:"trades"`
}
