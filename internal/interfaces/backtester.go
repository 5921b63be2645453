package interfaces

import (
	"context"
	"time"

	"github.com/gabrielschull/TraderML/internal/strategy"
	"github.com/gabrielschull/TraderML/internal/types"
)

// Backtester replays the strategy over a historical date range.
type Backtester interface {
	Run(ctx context.Context, params strategy.Params, start, end time.Time) (types.BacktestResult, error)
}

// HeadlineScraper is the fallback headline source used when the brokerage
// news feed comes back empty.
type HeadlineScraper interface {
	Headlines(ctx context.Context, symbol string, limit int) ([]string, error)
}
