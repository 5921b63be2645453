package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/gabrielschull/TraderML/internal/logger"
	"github.com/gabrielschull/TraderML/internal/types"
)

// Client wraps the Alpaca trading and market-data APIs behind the gateway
// surface the controller consumes.
type Client struct {
	trading *alpaca.Client
	data    *marketdata.Client
}

// Params configures the Alpaca connection.
type Params struct {
	APIKey    string
	APISecret string
	BaseURL   string // paper or live trading endpoint
}

// New creates a new Alpaca-backed gateway.
func New(p Params) *Client {
	return &Client{
		trading: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    p.APIKey,
			APISecret: p.APISecret,
			BaseURL:   p.BaseURL,
		}),
		data: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    p.APIKey,
			APISecret: p.APISecret,
		}),
	}
}

// Cash returns the account's available cash balance.
func (c *Client) Cash(ctx context.Context) (float64, error) {
	acct, err := c.trading.GetAccount()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch account", err)
		return 0, fmt.Errorf("fetch account: %w", err)
	}
	cash, _ := acct.Cash.Float64()
	logger.Debug(ctx, "Account fetched", "cash", cash)
	return cash, nil
}

// LastPrice returns the most recent trade price for symbol.
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	trade, err := c.data.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch last trade", err, "symbol", symbol)
		return 0, fmt.Errorf("fetch last trade %s: %w", symbol, err)
	}
	return trade.Price, nil
}

// Headlines returns news headlines for symbol over [start, end].
func (c *Client) Headlines(ctx context.Context, symbol string, start, end time.Time) ([]string, error) {
	articles, err := c.data.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{symbol},
		Start:      start,
		End:        end,
		TotalLimit: 50,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch news", err, "symbol", symbol)
		return nil, fmt.Errorf("fetch news %s: %w", symbol, err)
	}

	headlines := make([]string, 0, len(articles))
	for _, article := range articles {
		if article.Headline != "" {
			headlines = append(headlines, article.Headline)
		}
	}
	logger.Debug(ctx, "News fetched", "symbol", symbol, "headlines", len(headlines))
	return headlines, nil
}

// SubmitOrder places the order described by intent.
func (c *Client) SubmitOrder(ctx context.Context, intent types.OrderIntent) (types.OrderRef, error) {
	req, err := BuildOrderRequest(intent)
	if err != nil {
		return types.OrderRef{}, err
	}

	order, err := c.trading.PlaceOrder(req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Place order failed", err,
			"symbol", intent.Symbol, "side", intent.Side, "qty", intent.Qty, "style", intent.Style)
		return types.OrderRef{}, fmt.Errorf("place order: %w", err)
	}

	logger.Info(ctx, "Order placed",
		"order_id", order.ID, "symbol", intent.Symbol, "side", intent.Side,
		"qty", intent.Qty, "style", intent.Style, "status", order.Status)
	return types.OrderRef{ID: order.ID, Status: string(order.Status)}, nil
}

// LiquidateAll closes every open position and cancels pending orders.
func (c *Client) LiquidateAll(ctx context.Context) error {
	if _, err := c.trading.CloseAllPositions(alpaca.CloseAllPositionsRequest{CancelOrders: true}); err != nil {
		logger.ErrorWithErr(ctx, "Liquidate all failed", err)
		return fmt.Errorf("liquidate all: %w", err)
	}
	logger.Info(ctx, "All positions liquidated")
	return nil
}

// DailyBars returns daily bars for symbol over [start, end], oldest first.
func (c *Client) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	bars, err := c.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch bars", err, "symbol", symbol)
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, err)
	}

	out := make([]types.Bar, 0, len(bars))
	for _, bar := range bars {
		out = append(out, types.Bar{
			Time:  bar.Timestamp,
			Open:  bar.Open,
			High:  bar.High,
			Low:   bar.Low,
			Close: bar.Close,
		})
	}
	return out, nil
}

// BuildOrderRequest maps an order intent onto the Alpaca order request for
// its style. Prices are rounded to the cent as the API requires.
func BuildOrderRequest(intent types.OrderIntent) (alpaca.PlaceOrderRequest, error) {
	if intent.Qty <= 0 {
		return alpaca.PlaceOrderRequest{}, fmt.Errorf("order quantity must be > 0, got %d", intent.Qty)
	}

	qty := decimal.NewFromInt(int64(intent.Qty))
	side := alpaca.Buy
	if intent.Side == types.SideSell {
		side = alpaca.Sell
	}

	req := alpaca.PlaceOrderRequest{
		Symbol: intent.Symbol,
		Qty:    &qty,
		Side:   side,
	}

	switch intent.Style {
	case types.Market:
		req.Type = alpaca.Market
		req.TimeInForce = alpaca.Day
	case types.Bracket:
		if intent.Bracket == nil {
			return alpaca.PlaceOrderRequest{}, fmt.Errorf("bracket intent missing exit legs")
		}
		takeProfit := cents(intent.Bracket.TakeProfit)
		stopLoss := cents(intent.Bracket.StopLoss)
		req.Type = alpaca.Market
		req.TimeInForce = alpaca.GTC
		req.OrderClass = alpaca.Bracket
		req.TakeProfit = &alpaca.TakeProfit{LimitPrice: &takeProfit}
		req.StopLoss = &alpaca.StopLoss{StopPrice: &stopLoss}
	case types.Limit:
		if intent.Limit == nil {
			return alpaca.PlaceOrderRequest{}, fmt.Errorf("limit intent missing price params")
		}
		limitPrice := cents(intent.Limit.LimitPrice)
		tif, err := parseTimeInForce(intent.Limit.Expiry)
		if err != nil {
			return alpaca.PlaceOrderRequest{}, err
		}
		req.Type = alpaca.Limit
		req.TimeInForce = tif
		req.LimitPrice = &limitPrice
	default:
		return alpaca.PlaceOrderRequest{}, fmt.Errorf("unsupported order style: %s", intent.Style)
	}

	return req, nil
}

func parseTimeInForce(expiry types.Expiry) (alpaca.TimeInForce, error) {
	switch expiry {
	case types.ExpiryDay:
		return alpaca.Day, nil
	case types.ExpiryGTC:
		return alpaca.GTC, nil
	default:
		return "", fmt.Errorf("unsupported limit order expiry: %s", expiry)
	}
}

func cents(price float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Round(2)
}
