package interfaces

import (
	"context"
	"time"

	"github.com/gabrielschull/TraderML/internal/types"
)

// History serves historical daily bars and headlines for backtest replay.
type History interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error)
	Headlines(ctx context.Context, symbol string, start, end time.Time) ([]string, error)
}
