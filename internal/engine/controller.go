package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabrielschull/TraderML/internal/interfaces"
	"github.com/gabrielschull/TraderML/internal/logger"
	"github.com/gabrielschull/TraderML/internal/metrics"
	"github.com/gabrielschull/TraderML/internal/strategy"
	"github.com/gabrielschull/TraderML/internal/trace"
	"github.com/gabrielschull/TraderML/internal/tradelog"
	"github.com/gabrielschull/TraderML/internal/types"
)

// ErrNotConfigured is returned when a start request arrives before any
// configuration has been applied.
var ErrNotConfigured = errors.New("strategy instance has not been configured")

// State is the controller lifecycle phase.
type State string

const (
	Uninitialized State = "uninitialized"
	Configured    State = "configured"
	Running       State = "running"
)

// Controller owns the single mutable strategy instance. All access to the
// configuration and last-trade state goes through its lock, so a parameter
// update can never land in the middle of an iteration.
type Controller struct {
	mu        sync.Mutex
	state     State
	params    strategy.Params
	lastTrade types.Side

	gateway    interfaces.Gateway
	classifier interfaces.Classifier
	fallback   interfaces.HeadlineScraper
	backtester interfaces.Backtester

	iterationTimeout time.Duration
	now              func() time.Time
}

// Deps are the collaborators a controller trades through. Fallback and
// Backtester are optional.
type Deps struct {
	Gateway          interfaces.Gateway
	Classifier       interfaces.Classifier
	Fallback         interfaces.HeadlineScraper
	Backtester       interfaces.Backtester
	IterationTimeout time.Duration
}

// New creates an unconfigured controller.
func New(deps Deps) *Controller {
	timeout := deps.IterationTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Controller{
		state:            Uninitialized,
		gateway:          deps.Gateway,
		classifier:       deps.Classifier,
		fallback:         deps.Fallback,
		backtester:       deps.Backtester,
		iterationTimeout: timeout,
		now:              time.Now,
	}
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Params returns a snapshot of the current configuration.
func (c *Controller) Params() strategy.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// LastTrade returns the side of the most recently submitted order.
func (c *Controller) LastTrade() types.Side {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTrade
}

// Configure creates the strategy instance on first call (defaults fill the
// fields the patch leaves unset) and patches it in place afterwards.
// last_trade and the lifecycle phase are untouched by updates. Returns
// whether the instance was created by this call.
func (c *Controller) Configure(ctx context.Context, patch strategy.Patch) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	base := c.params
	created := c.state == Uninitialized
	if created {
		base = strategy.Defaults()
	}

	merged := strategy.Merge(base, patch)
	if err := merged.Validate(); err != nil {
		return false, err
	}

	c.params = merged
	if created {
		c.state = Configured
	}
	logger.Info(ctx, "Strategy configured",
		"created", created, "symbol", merged.Symbol,
		"cash_at_risk", merged.CashAtRisk, "order_type", merged.OrderStyle)
	return created, nil
}

// StartBacktest patches the configured instance with the request payload
// and replays it over [start, end). It fails with ErrNotConfigured before
// the first configuration and performs no collaborator calls in that case.
func (c *Controller) StartBacktest(ctx context.Context, patch strategy.Patch, start, end time.Time) (types.BacktestResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Uninitialized {
		return types.BacktestResult{}, ErrNotConfigured
	}
	if c.backtester == nil {
		return types.BacktestResult{}, fmt.Errorf("no backtester configured")
	}
	if !start.Before(end) {
		return types.BacktestResult{}, fmt.Errorf("start_date %s must be before end_date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	merged := strategy.Merge(c.params, patch)
	if err := merged.Validate(); err != nil {
		return types.BacktestResult{}, err
	}
	c.params = merged

	prev := c.state
	c.state = Running
	defer func() { c.state = prev }()

	ctx, span := trace.StartSpan(ctx, "backtest", trace.WithSymbol(merged.Symbol))
	defer span.End()

	metrics.BacktestsTotal.Inc()
	logger.Info(ctx, "Backtest starting", "symbol", merged.Symbol,
		"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))

	result, err := c.backtester.Run(ctx, merged, start, end)
	if err != nil {
		logger.ErrorWithErr(ctx, "Backtest failed", err, "symbol", merged.Symbol)
		return types.BacktestResult{}, err
	}

	logger.Info(ctx, "Backtest finished", "symbol", merged.Symbol,
		"trades", len(result.Trades), "return_pct", result.ReturnPct)
	return result, nil
}

// RunIteration executes one trading iteration against the live gateway.
// Upstream failures are logged and swallowed so the schedule continues;
// the iteration is bounded by the configured timeout.
func (c *Controller) RunIteration(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Uninitialized {
		logger.Warn(ctx, "Iteration skipped: not configured")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.iterationTimeout)
	defer cancel()
	ctx, span := trace.StartSpan(ctx, "trading-iteration", trace.WithSymbol(c.params.Symbol))
	defer span.End()

	if err := c.runOnce(ctx, c.now(), c.gateway); err != nil {
		metrics.IterationsTotal.WithLabelValues(c.params.Symbol, "error").Inc()
		logger.ErrorWithErr(ctx, "Iteration failed", err, "symbol", c.params.Symbol)
		return
	}
	metrics.IterationsTotal.WithLabelValues(c.params.Symbol, "ok").Inc()
}

// runOnce is one fetch-size-decide-submit pass as of a given date. The
// caller must hold the lock. last_trade moves only after a successful
// submission, and only to the side just traded.
func (c *Controller) runOnce(ctx context.Context, asOf time.Time, gw interfaces.Gateway) error {
	p := c.params

	cash, err := gw.Cash(ctx)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("broker").Inc()
		return err
	}
	lastPrice, err := gw.LastPrice(ctx, p.Symbol)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("marketdata").Inc()
		return err
	}

	qty := strategy.PositionSize(cash, lastPrice, p.CashAtRisk)

	signal, err := c.acquireSignal(ctx, asOf, gw)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("classifier").Inc()
		return err
	}

	dec := strategy.Decide(strategy.Input{
		Signal:    signal,
		Cash:      cash,
		LastPrice: lastPrice,
		Qty:       qty,
		LastTrade: c.lastTrade,
	}, p)

	logger.Decision(ctx, p.Symbol, decisionAction(dec), signal.Probability, dec.Reason,
		"label", signal.Label, "qty", qty, "last_price", lastPrice, "cash", cash)
	_ = tradelog.AppendDecision(tradelog.DecisionEntry{
		Symbol:      p.Symbol,
		Reason:      dec.Reason,
		Probability: signal.Probability,
		Label:       signal.Label,
		Price:       lastPrice,
		Qty:         qty,
		Traded:      dec.Intent != nil,
	})

	if dec.Intent == nil {
		return nil
	}

	if dec.LiquidateFirst {
		if err := gw.LiquidateAll(ctx); err != nil {
			metrics.UpstreamErrorsTotal.WithLabelValues("broker").Inc()
			return err
		}
		metrics.LiquidationsTotal.WithLabelValues(p.Symbol).Inc()
	}

	ref, err := gw.SubmitOrder(ctx, *dec.Intent)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("broker").Inc()
		return err
	}

	c.lastTrade = dec.Intent.Side
	metrics.OrdersTotal.WithLabelValues(p.Symbol, string(dec.Intent.Side), string(dec.Intent.Style)).Inc()
	logger.Trade(ctx, p.Symbol, string(dec.Intent.Side), dec.Intent.Qty, lastPrice, ref.ID,
		"style", dec.Intent.Style)
	_ = tradelog.Append(tradelog.Entry{
		Symbol:      p.Symbol,
		Side:        dec.Intent.Side,
		Qty:         dec.Intent.Qty,
		Price:       lastPrice,
		OrderID:     ref.ID,
		Style:       string(dec.Intent.Style),
		Reason:      dec.Reason,
		Probability: signal.Probability,
		Label:       signal.Label,
	})
	return nil
}

// acquireSignal fetches headlines over the lookback window and classifies
// them. An empty feed falls through to the scraper when one is wired; no
// headlines at all is still a valid neutral signal.
func (c *Controller) acquireSignal(ctx context.Context, asOf time.Time, gw interfaces.Gateway) (types.Signal, error) {
	p := c.params
	windowStart := asOf.AddDate(0, 0, -p.SentimentDays)

	headlines, err := gw.Headlines(ctx, p.Symbol, windowStart, asOf)
	if err != nil {
		return types.Signal{}, err
	}
	if len(headlines) == 0 && c.fallback != nil {
		scraped, scrapeErr := c.fallback.Headlines(ctx, p.Symbol, 20)
		if scrapeErr != nil {
			logger.Warn(ctx, "Headline scraper fallback failed", "symbol", p.Symbol, "error", scrapeErr)
		} else {
			headlines = scraped
		}
	}

	return c.classifier.Classify(ctx, headlines)
}

func decisionAction(dec strategy.Decision) string {
	if dec.Intent == nil {
		return "hold"
	}
	return string(dec.Intent.Side)
}
