package strategy

import "testing"

func TestPositionSize(t *testing.T) {
	cases := []struct {
		name       string
		cash       float64
		lastPrice  float64
		cashAtRisk float64
		want       int
	}{
		{"half cash at risk", 10000, 100, 0.5, 50},
		{"floors fractional shares", 10000, 333, 1.0, 30},
		{"full cash at risk", 1000, 100, 1.0, 10},
		{"cannot afford one share", 50, 100, 1.0, 0},
		{"zero cash", 0, 100, 0.5, 0},
		{"small fraction rounds to zero", 1000, 600, 0.5, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PositionSize(tc.cash, tc.lastPrice, tc.cashAtRisk)
			if got != tc.want {
				t.Errorf("PositionSize(%.0f, %.0f, %.2f) = %d, want %d",
					tc.cash, tc.lastPrice, tc.cashAtRisk, got, tc.want)
			}
		})
	}
}

func TestPositionSizeNeverNegative(t *testing.T) {
	if got := PositionSize(-5000, 100, 0.5); got != 0 {
		t.Errorf("expected 0 for negative cash, got %d", got)
	}
	if got := PositionSize(5000, -1, 0.5); got != 0 {
		t.Errorf("expected 0 for non-positive price, got %d", got)
	}
}
