package volatility

import (
	"errors"
	"math"
	"testing"
)

func TestRank(t *testing.T) {
	history := []float64{0.20, 0.35, 0.50, 0.28, 0.42}

	if got := Rank(0.20, history); got != 0 {
		t.Fatalf("rank at minimum = %v, want 0", got)
	}
	if got := Rank(0.50, history); got != 100 {
		t.Fatalf("rank at maximum = %v, want 100", got)
	}
	if got := Rank(0.35, history); got != 50 {
		t.Fatalf("rank at midpoint = %v, want 50", got)
	}
	// Readings outside the observed range clamp.
	if got := Rank(0.90, history); got != 100 {
		t.Fatalf("rank above range = %v, want 100", got)
	}
	if got := Rank(0.05, history); got != 0 {
		t.Fatalf("rank below range = %v, want 0", got)
	}
}

func TestRankDegenerateHistory(t *testing.T) {
	if got := Rank(0.3, nil); got != 50 {
		t.Fatalf("rank with no history = %v, want 50", got)
	}
	flat := []float64{0.25, 0.25, 0.25}
	if got := Rank(0.25, flat); got != 50 {
		t.Fatalf("rank with flat history = %v, want 50", got)
	}
}

func TestPercentile(t *testing.T) {
	history := []float64{0.10, 0.20, 0.30, 0.40, 0.50}

	if got := Percentile(0.35, history, false); got != 60 {
		t.Fatalf("percentile = %v, want 60", got)
	}
	if got := Percentile(0.05, history, false); got != 0 {
		t.Fatalf("percentile below all = %v, want 0", got)
	}
	if got := Percentile(0.60, history, false); got != 100 {
		t.Fatalf("percentile above all = %v, want 100", got)
	}
	// Strict vs inclusive at a tied reading.
	if got := Percentile(0.30, history, false); got != 40 {
		t.Fatalf("strict percentile at tie = %v, want 40", got)
	}
	if got := Percentile(0.30, history, true); got != 60 {
		t.Fatalf("inclusive percentile at tie = %v, want 60", got)
	}
	if got := Percentile(0.30, nil, false); got != 50 {
		t.Fatalf("percentile with no history = %v, want 50", got)
	}
}

func TestHistorical(t *testing.T) {
	// Alternating +1%/-1% daily moves give a deterministic stdev.
	closes := make([]float64, 21)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] * 1.01
		} else {
			closes[i] = closes[i-1] / 1.01
		}
	}
	hv, err := Historical(closes, 20)
	if err != nil {
		t.Fatalf("Historical: %v", err)
	}
	// Sample stdev of alternating ±log(1.01) returns, annualized.
	r := math.Log(1.01)
	want := r * math.Sqrt(20.0/19.0) * math.Sqrt(252)
	if math.Abs(hv-want) > 1e-9 {
		t.Fatalf("hv = %v, want %v", hv, want)
	}
}

func TestHistoricalInsufficientHistory(t *testing.T) {
	closes := []float64{100, 101, 102}
	if _, err := Historical(closes, 20); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	// Exactly window closes is still one short.
	closes = make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if _, err := Historical(closes, 20); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory at window closes, got %v", err)
	}
}

func TestHistoricalUsesMostRecentWindow(t *testing.T) {
	// Long flat run followed by 21 moving closes: only the tail matters.
	closes := make([]float64, 0, 60)
	for i := 0; i < 39; i++ {
		closes = append(closes, 100)
	}
	tail := 100.0
	for i := 0; i < 21; i++ {
		tail *= 1.02
		closes = append(closes, tail)
	}
	hv, err := Historical(closes, 20)
	if err != nil {
		t.Fatalf("Historical: %v", err)
	}
	// Constant +2% returns in the tail window: zero variance.
	if math.Abs(hv) > 1e-9 {
		t.Fatalf("hv = %v, want 0 for constant returns", hv)
	}
}
