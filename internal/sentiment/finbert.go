package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabrielschull/TraderML/internal/api"
	"github.com/gabrielschull/TraderML/internal/logger"
	"github.com/gabrielschull/TraderML/internal/trace"
	"github.com/gabrielschull/TraderML/internal/types"
)

// FinBERTClassifier calls a hosted FinBERT text-classification endpoint.
// The model is a black box here: headlines in, per-label scores out.
type FinBERTClassifier struct {
	client *api.Client
	path   string
	retry  *api.RetryConfig
}

// FinBERTConfig configures the hosted model endpoint.
type FinBERTConfig struct {
	BaseURL string        // e.g. https://api-inference.huggingface.co
	Model   string        // e.g. ProsusAI/finbert
	Token   string        // bearer token, optional
	Timeout time.Duration
}

// NewFinBERTClassifier creates a classifier backed by the configured
// inference endpoint.
func NewFinBERTClassifier(cfg FinBERTConfig) *FinBERTClassifier {
	opts := []api.ClientOption{
		api.WithBaseURL(cfg.BaseURL),
	}
	if cfg.Token != "" {
		opts = append(opts, api.WithHeader("Authorization", "Bearer "+cfg.Token))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, api.WithTimeout(cfg.Timeout))
	}
	return &FinBERTClassifier{
		client: api.NewClient(opts...),
		path:   "/models/" + cfg.Model,
		retry:  api.DefaultRetryConfig(),
	}
}

// Ready probes the model endpoint. Hosted models unload when idle, so a
// startup probe also warms the model before the first iteration needs it.
func (c *FinBERTClassifier) Ready(ctx context.Context) error {
	if _, err := c.client.GET(ctx, c.path); err != nil {
		return fmt.Errorf("finbert endpoint: %w", err)
	}
	return nil
}

type inferenceRequest struct {
	Inputs []string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify sends the batch to the model and aggregates per-headline scores
// into one signal: the label with the highest mean score wins, and that
// mean is the probability. An empty batch yields neutral with zero
// confidence without touching the network.
func (c *FinBERTClassifier) Classify(ctx context.Context, headlines []string) (types.Signal, error) {
	if len(headlines) == 0 {
		return types.Signal{Probability: 0, Label: types.Neutral}, nil
	}

	ctx, span := trace.StartSpan(ctx, "finbert-classify")
	defer span.End()

	resp, err := c.client.POSTWithRetry(ctx, c.path, inferenceRequest{Inputs: headlines}, c.retry)
	if err != nil {
		return types.Signal{}, fmt.Errorf("finbert inference: %w", err)
	}

	var scored [][]labelScore
	if err := resp.ParseJSON(&scored); err != nil {
		return types.Signal{}, fmt.Errorf("finbert response: %w", err)
	}
	if len(scored) == 0 {
		return types.Signal{Probability: 0, Label: types.Neutral}, nil
	}

	sums := map[types.Label]float64{}
	for _, headlineScores := range scored {
		for _, ls := range headlineScores {
			sums[parseLabel(ls.Label)] += ls.Score
		}
	}

	best := types.Neutral
	bestSum := sums[types.Neutral]
	if sums[types.Positive] > bestSum {
		best, bestSum = types.Positive, sums[types.Positive]
	}
	if sums[types.Negative] > bestSum {
		best, bestSum = types.Negative, sums[types.Negative]
	}

	signal := types.Signal{
		Probability: bestSum / float64(len(scored)),
		Label:       best,
	}
	logger.Debug(ctx, "FinBERT signal", "label", signal.Label, "probability", signal.Probability, "headlines", len(headlines))
	return signal, nil
}

func parseLabel(raw string) types.Label {
	switch strings.ToLower(raw) {
	case "positive":
		return types.Positive
	case "negative":
		return types.Negative
	default:
		return types.Neutral
	}
}
