package sentiment

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gabrielschull/TraderML/internal/types"
)

func finbertServer(t *testing.T, status int, body string) (*httptest.Server, *[]string) {
	t.Helper()
	var gotInputs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Inputs []string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotInputs = payload.Inputs
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &gotInputs
}

func TestFinBERTClassifyAggregates(t *testing.T) {
	body := `[
		[{"label":"positive","score":0.98},{"label":"negative","score":0.01},{"label":"neutral","score":0.01}],
		[{"label":"positive","score":0.90},{"label":"neutral","score":0.08},{"label":"negative","score":0.02}]
	]`
	srv, inputs := finbertServer(t, http.StatusOK, body)

	c := NewFinBERTClassifier(FinBERTConfig{
		BaseURL: srv.URL,
		Model:   "ProsusAI/finbert",
		Timeout: 5 * time.Second,
	})

	signal, err := c.Classify(context.Background(), []string{"beats estimates", "raises guidance"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if signal.Label != types.Positive {
		t.Fatalf("label = %q, want positive", signal.Label)
	}
	// Mean positive score: (0.98 + 0.90) / 2.
	if math.Abs(signal.Probability-0.94) > 1e-9 {
		t.Fatalf("probability = %v, want 0.94", signal.Probability)
	}
	if len(*inputs) != 2 {
		t.Fatalf("inputs sent = %v", *inputs)
	}
}

func TestFinBERTClassifyEmptyBatchSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewFinBERTClassifier(FinBERTConfig{BaseURL: srv.URL, Model: "ProsusAI/finbert"})
	signal, err := c.Classify(context.Background(), nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if signal.Label != types.Neutral || signal.Probability != 0 {
		t.Fatalf("signal = %+v, want zero-confidence neutral", signal)
	}
	if called {
		t.Fatal("no request expected for an empty batch")
	}
}

func TestFinBERTClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewFinBERTClassifier(FinBERTConfig{BaseURL: srv.URL, Model: "ProsusAI/finbert"})
	c.retry.MaxAttempts = 1

	if _, err := c.Classify(context.Background(), []string{"headline"}); err == nil {
		t.Fatal("expected error on 503 response")
	}
}

func TestFinBERTReady(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.Write([]byte(`{"modelId":"ProsusAI/finbert"}`))
	}))
	defer srv.Close()

	c := NewFinBERTClassifier(FinBERTConfig{BaseURL: srv.URL, Model: "ProsusAI/finbert"})
	if err := c.Ready(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if method != http.MethodGet || path != "/models/ProsusAI/finbert" {
		t.Fatalf("probe = %s %s", method, path)
	}
}

func TestFinBERTReadyEndpointDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewFinBERTClassifier(FinBERTConfig{BaseURL: srv.URL, Model: "ProsusAI/finbert"})
	if err := c.Ready(context.Background()); err == nil {
		t.Fatal("expected error from unavailable endpoint")
	}
}

func TestFinBERTAuthHeader(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`[[{"label":"neutral","score":1.0}]]`))
	}))
	defer srv.Close()

	c := NewFinBERTClassifier(FinBERTConfig{BaseURL: srv.URL, Model: "ProsusAI/finbert", Token: "hf_test"})
	if _, err := c.Classify(context.Background(), []string{"headline"}); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if auth != "Bearer hf_test" {
		t.Fatalf("auth header = %q", auth)
	}
}
