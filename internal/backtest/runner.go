package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/gabrielschull/TraderML/internal/interfaces"
	"github.com/gabrielschull/TraderML/internal/logger"
	"github.com/gabrielschull/TraderML/internal/strategy"
	"github.com/gabrielschull/TraderML/internal/types"
)

// DefaultInitialEquity is the paper account balance a run starts with.
const DefaultInitialEquity = 100000.0

// Runner replays the strategy over historical daily bars with a paper
// portfolio. Entries fill at the bar close; after a bracket entry the
// take-profit and stop-loss legs are evaluated against subsequent bars'
// highs and lows, and the triggered leg closes the position at its price.
// Limit shaping is recorded on the trade but fills at the close.
type Runner struct {
	history       interfaces.History
	classifier    interfaces.Classifier
	initialEquity float64
}

// New creates a runner. initialEquity <= 0 selects the default.
func New(history interfaces.History, classifier interfaces.Classifier, initialEquity float64) *Runner {
	if initialEquity <= 0 {
		initialEquity = DefaultInitialEquity
	}
	return &Runner{history: history, classifier: classifier, initialEquity: initialEquity}
}

// portfolio is the simulated account. position is signed: positive long,
// negative short.
type portfolio struct {
	cash     float64
	position int
}

func (p *portfolio) equity(price float64) float64 {
	return p.cash + float64(p.position)*price
}

func (p *portfolio) liquidate(price float64) {
	p.cash += float64(p.position) * price
	p.position = 0
}

func (p *portfolio) fill(side types.Side, qty int, price float64) {
	if side == types.SideBuy {
		p.cash -= float64(qty) * price
		p.position += qty
		return
	}
	p.cash += float64(qty) * price
	p.position -= qty
}

// exitLegs are the open bracket exits of the current position.
type exitLegs struct {
	side       types.Side
	takeProfit float64
	stopLoss   float64
}

// triggered reports whether bar's range reaches either exit leg. When both
// legs fall inside the same bar the stop-loss is assumed to fill first.
func (e *exitLegs) triggered(bar types.Bar) (price float64, note string, ok bool) {
	if e.side == types.SideBuy {
		if bar.Low <= e.stopLoss {
			return e.stopLoss, "stop_loss", true
		}
		if bar.High >= e.takeProfit {
			return e.takeProfit, "take_profit", true
		}
		return 0, "", false
	}
	// short entry: take-profit sits below the entry, stop-loss above
	if bar.High >= e.stopLoss {
		return e.stopLoss, "stop_loss", true
	}
	if bar.Low <= e.takeProfit {
		return e.takeProfit, "take_profit", true
	}
	return 0, "", false
}

// Run replays one parameter set over [start, end) and returns the
// simulated performance.
func (r *Runner) Run(ctx context.Context, params strategy.Params, start, end time.Time) (types.BacktestResult, error) {
	bars, err := r.history.DailyBars(ctx, params.Symbol, start, end)
	if err != nil {
		return types.BacktestResult{}, fmt.Errorf("loading daily bars for %s: %w", params.Symbol, err)
	}
	if len(bars) == 0 {
		return types.BacktestResult{}, fmt.Errorf("no daily bars for %s in %s..%s",
			params.Symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	pf := portfolio{cash: r.initialEquity}
	lastTrade := types.SideNone
	var trades []types.BacktestTrade
	var exits *exitLegs

	for _, bar := range bars {
		select {
		case <-ctx.Done():
			return types.BacktestResult{}, ctx.Err()
		default:
		}

		if exits != nil && pf.position != 0 {
			if price, note, hit := exits.triggered(bar); hit {
				qty := pf.position
				closeSide := types.SideSell
				if qty < 0 {
					qty, closeSide = -qty, types.SideBuy
				}
				pf.liquidate(price)
				exits = nil
				trades = append(trades, types.BacktestTrade{
					Time: bar.Time, Side: closeSide, Qty: qty, Price: price,
					Note: note,
				})
				logger.Debug(ctx, "Bracket exit", "symbol", params.Symbol,
					"date", bar.Time.Format("2006-01-02"), "leg", note,
					"price", price, "equity", pf.equity(bar.Close))
			}
		}

		signal, err := r.signalFor(ctx, params, bar.Time)
		if err != nil {
			return types.BacktestResult{}, err
		}

		qty := strategy.PositionSize(pf.cash, bar.Close, params.CashAtRisk)
		dec := strategy.Decide(strategy.Input{
			Signal:    signal,
			Cash:      pf.cash,
			LastPrice: bar.Close,
			Qty:       qty,
			LastTrade: lastTrade,
		}, params)

		if dec.Intent == nil {
			continue
		}

		if dec.LiquidateFirst {
			pf.liquidate(bar.Close)
			trades = append(trades, types.BacktestTrade{
				Time: bar.Time, Side: types.SideNone, Qty: 0, Price: bar.Close,
				Note: "liquidate",
			})
		}

		pf.fill(dec.Intent.Side, dec.Intent.Qty, bar.Close)
		if dec.Intent.Style == types.Bracket && dec.Intent.Bracket != nil {
			exits = &exitLegs{
				side:       dec.Intent.Side,
				takeProfit: dec.Intent.Bracket.TakeProfit,
				stopLoss:   dec.Intent.Bracket.StopLoss,
			}
		} else {
			exits = nil
		}
		lastTrade = dec.Intent.Side
		trades = append(trades, types.BacktestTrade{
			Time:  bar.Time,
			Side:  dec.Intent.Side,
			Qty:   dec.Intent.Qty,
			Price: bar.Close,
			Note:  dec.Reason,
		})
		logger.Debug(ctx, "Backtest fill", "symbol", params.Symbol,
			"date", bar.Time.Format("2006-01-02"), "side", dec.Intent.Side,
			"qty", dec.Intent.Qty, "price", bar.Close, "equity", pf.equity(bar.Close))
	}

	final := pf.equity(bars[len(bars)-1].Close)
	return types.BacktestResult{
		Symbol:        params.Symbol,
		Start:         start,
		End:           end,
		Days:          len(bars),
		InitialEquity: r.initialEquity,
		FinalEquity:   final,
		ReturnPct:     (final - r.initialEquity) / r.initialEquity * 100,
		Trades:        trades,
	}, nil
}

func (r *Runner) signalFor(ctx context.Context, params strategy.Params, asOf time.Time) (types.Signal, error) {
	windowStart := asOf.AddDate(0, 0, -params.SentimentDays)
	headlines, err := r.history.Headlines(ctx, params.Symbol, windowStart, asOf)
	if err != nil {
		return types.Signal{}, fmt.Errorf("loading headlines for %s: %w", params.Symbol, err)
	}
	signal, err := r.classifier.Classify(ctx, headlines)
	if err != nil {
		return types.Signal{}, fmt.Errorf("classifying headlines for %s: %w", params.Symbol, err)
	}
	return signal, nil
}
