package interfaces

import (
	"context"

	"github.com/gabrielschull/TraderML/internal/types"
)

// Classifier scores a batch of headlines. An empty batch must yield a
// neutral zero-confidence signal, not an error.
type Classifier interface {
	Classify(ctx context.Context, headlines []string) (types.Signal, error)
}
