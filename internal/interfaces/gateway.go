package interfaces

import (
	"context"
	"time"

	"github.com/gabrielschull/TraderML/internal/types"
)

// Gateway is the brokerage and market-data surface the controller trades
// through. Implementations must be safe for use from a single iteration at
// a time; the controller serializes access.
type Gateway interface {
	Cash(ctx context.Context) (float64, error)
	LastPrice(ctx context.Context, symbol string) (float64, error)
	Headlines(ctx context.Context, symbol string, start, end time.Time) ([]string, error)
	SubmitOrder(ctx context.Context, intent types.OrderIntent) (types.OrderRef, error)
	LiquidateAll(ctx context.Context) error
}
