package volatility

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientHistory is returned when fewer closes than the window
// requires are available.
var ErrInsufficientHistory = errors.New("volatility: insufficient price history")

// tradingDaysPerYear annualizes daily log-return volatility.
const tradingDaysPerYear = 252

// Rank places current inside the [min, max] range of history on a 0-100
// scale. A flat history (or an empty one) gives the neutral 50.
func Rank(current float64, history []float64) float64 {
	if len(history) == 0 {
		return 50
	}
	lo, hi := history[0], history[0]
	for _, v := range history[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return 50
	}
	rank := (current - lo) / (hi - lo) * 100
	return math.Max(0, math.Min(100, rank))
}

// Percentile is the share of history readings below current, 0-100. With
// inclusive set, readings equal to current count as well.
func Percentile(current float64, history []float64, inclusive bool) float64 {
	if len(history) == 0 {
		return 50
	}
	count := 0
	for _, v := range history {
		if v < current || (inclusive && v == current) {
			count++
		}
	}
	return float64(count) / float64(len(history)) * 100
}

// Historical computes annualized close-to-close volatility over a window of
// trading days. It needs window+1 closes, oldest first, to form window
// returns.
func Historical(closes []float64, window int) (float64, error) {
	if window <= 0 || len(closes) < window+1 {
		return 0, ErrInsufficientHistory
	}
	recent := closes[len(closes)-(window+1):]
	returns := make([]float64, 0, window)
	for i := 1; i < len(recent); i++ {
		if recent[i-1] <= 0 || recent[i] <= 0 {
			return 0, ErrInsufficientHistory
		}
		returns = append(returns, math.Log(recent[i]/recent[i-1]))
	}
	sd := stat.StdDev(returns, nil)
	return sd * math.Sqrt(tradingDaysPerYear), nil
}
