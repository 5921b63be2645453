package sentiment

import (
	"context"
	"strings"

	"github.com/gabrielschull/TraderML/internal/types"
)

// LexiconClassifier scores headlines against fixed word lists. It is fully
// deterministic, needs no network, and is the classifier used for backtests
// and as fallback when no hosted model is configured.
type LexiconClassifier struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

var positiveTerms = []string{
	"beat", "beats", "surge", "surges", "soar", "soars", "rally", "rallies",
	"gain", "gains", "record", "upgrade", "upgraded", "outperform", "strong",
	"growth", "profit", "profits", "bullish", "buyback", "dividend", "jump",
	"jumps", "rise", "rises", "tops", "exceeds", "boom", "breakthrough",
	"approval", "approved", "wins", "momentum", "raised", "expands",
}

var negativeTerms = []string{
	"miss", "misses", "plunge", "plunges", "fall", "falls", "drop", "drops",
	"slump", "slumps", "downgrade", "downgraded", "underperform", "weak",
	"loss", "losses", "bearish", "lawsuit", "probe", "recall", "fraud",
	"bankruptcy", "layoffs", "cuts", "warning", "warns", "decline",
	"declines", "crash", "tumbles", "halted", "investigation", "selloff",
}

// NewLexiconClassifier builds the classifier from the built-in term lists.
func NewLexiconClassifier() *LexiconClassifier {
	c := &LexiconClassifier{
		positive: make(map[string]struct{}, len(positiveTerms)),
		negative: make(map[string]struct{}, len(negativeTerms)),
	}
	for _, term := range positiveTerms {
		c.positive[term] = struct{}{}
	}
	for _, term := range negativeTerms {
		c.negative[term] = struct{}{}
	}
	return c
}

// Classify counts sentiment-bearing terms across all headlines. The label
// follows the dominant polarity and the probability is the dominant share
// of matched terms. No headlines, no matches, or a tie all yield neutral:
// an empty batch scores zero confidence, a tie scores 0.5.
func (c *LexiconClassifier) Classify(ctx context.Context, headlines []string) (types.Signal, error) {
	var pos, neg int
	for _, headline := range headlines {
		for _, word := range tokenize(headline) {
			if _, ok := c.positive[word]; ok {
				pos++
			}
			if _, ok := c.negative[word]; ok {
				neg++
			}
		}
	}

	total := pos + neg
	if total == 0 {
		return types.Signal{Probability: 0, Label: types.Neutral}, nil
	}
	if pos == neg {
		return types.Signal{Probability: 0.5, Label: types.Neutral}, nil
	}
	if pos > neg {
		return types.Signal{Probability: float64(pos) / float64(total), Label: types.Positive}, nil
	}
	return types.Signal{Probability: float64(neg) / float64(total), Label: types.Negative}, nil
}

func tokenize(headline string) []string {
	lowered := strings.ToLower(headline)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
