package pricing

import (
	"errors"
	"math"

	"github.com/chobie/go-gaussian"

	"optionstracker/internal/models"
)

// ErrNoConvergence is returned when the implied-volatility search fails to
// reach the tolerance inside the iteration budget.
var ErrNoConvergence = errors.New("pricing: implied volatility did not converge")

const (
	ivTolerance = 1e-4
	ivMaxIter   = 100
	ivFloor     = 0.01
	ivCeil      = 5.0
)

var stdNorm = gaussian.NewGaussian(0, 1)

// Input carries everything Black-Scholes needs for one contract.
// TimeYears is the time to expiry in calendar years, Rate and Dividend are
// continuously compounded annual rates, Vol is annualized volatility.
type Input struct {
	Spot      float64
	Strike    float64
	TimeYears float64
	Rate      float64
	Dividend  float64
	Vol       float64
	Type      models.OptionType
}

// Greeks are reported in trading conventions: Theta is per calendar day,
// Vega and Rho are per one percentage point move.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

func d1d2(in Input) (float64, float64) {
	sqrtT := math.Sqrt(in.TimeYears)
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate-in.Dividend+0.5*in.Vol*in.Vol)*in.TimeYears) / (in.Vol * sqrtT)
	d2 := d1 - in.Vol*sqrtT
	return d1, d2
}

// Price returns the Black-Scholes value of the option. Expired contracts
// (TimeYears <= 0) are valued at intrinsic.
func Price(in Input) float64 {
	if in.TimeYears <= 0 {
		return intrinsic(in)
	}
	if in.Vol <= 0 {
		return discountedIntrinsic(in)
	}
	d1, d2 := d1d2(in)
	dfDiv := math.Exp(-in.Dividend * in.TimeYears)
	dfRate := math.Exp(-in.Rate * in.TimeYears)
	if in.Type == models.OptionCall {
		return in.Spot*dfDiv*stdNorm.Cdf(d1) - in.Strike*dfRate*stdNorm.Cdf(d2)
	}
	return in.Strike*dfRate*stdNorm.Cdf(-d2) - in.Spot*dfDiv*stdNorm.Cdf(-d1)
}

// ComputeGreeks returns the sensitivity set for the option. Expired
// contracts get zero Greeks.
func ComputeGreeks(in Input) Greeks {
	if in.TimeYears <= 0 || in.Vol <= 0 {
		return Greeks{}
	}
	d1, d2 := d1d2(in)
	sqrtT := math.Sqrt(in.TimeYears)
	dfDiv := math.Exp(-in.Dividend * in.TimeYears)
	dfRate := math.Exp(-in.Rate * in.TimeYears)
	pdf := stdNorm.Pdf(d1)

	g := Greeks{
		Gamma: dfDiv * pdf / (in.Spot * in.Vol * sqrtT),
		Vega:  in.Spot * dfDiv * pdf * sqrtT / 100,
	}

	thetaCommon := -in.Spot * dfDiv * pdf * in.Vol / (2 * sqrtT)
	if in.Type == models.OptionCall {
		g.Delta = dfDiv * stdNorm.Cdf(d1)
		theta := thetaCommon - in.Rate*in.Strike*dfRate*stdNorm.Cdf(d2) + in.Dividend*in.Spot*dfDiv*stdNorm.Cdf(d1)
		g.Theta = theta / 365
		g.Rho = in.Strike * in.TimeYears * dfRate * stdNorm.Cdf(d2) / 100
	} else {
		g.Delta = -dfDiv * stdNorm.Cdf(-d1)
		theta := thetaCommon + in.Rate*in.Strike*dfRate*stdNorm.Cdf(-d2) - in.Dividend*in.Spot*dfDiv*stdNorm.Cdf(-d1)
		g.Theta = theta / 365
		g.Rho = -in.Strike * in.TimeYears * dfRate * stdNorm.Cdf(-d2) / 100
	}
	return g
}

// ImpliedVolatility inverts Black-Scholes for the volatility that reproduces
// marketPrice. Newton-Raphson runs first; if the derivative degenerates or
// the iterate escapes [0.01, 5.0], a bisection over the same bracket takes
// over. Prices below the no-arbitrage floor cannot be inverted.
func ImpliedVolatility(in Input, marketPrice float64) (float64, error) {
	if in.TimeYears <= 0 || marketPrice <= 0 {
		return 0, ErrNoConvergence
	}

	priceAt := func(vol float64) float64 {
		in.Vol = vol
		return Price(in)
	}

	vol := 0.5
	for i := 0; i < ivMaxIter; i++ {
		in.Vol = vol
		diff := Price(in) - marketPrice
		if math.Abs(diff) < ivTolerance {
			return vol, nil
		}
		d1, _ := d1d2(in)
		// Raw vega, per unit vol.
		vega := in.Spot * math.Exp(-in.Dividend*in.TimeYears) * stdNorm.Pdf(d1) * math.Sqrt(in.TimeYears)
		if vega < 1e-10 {
			break
		}
		vol -= diff / vega
		if vol < ivFloor || vol > ivCeil {
			break
		}
	}

	// Bisection fallback over the admissible bracket.
	lo, hi := ivFloor, ivCeil
	fLo := priceAt(lo) - marketPrice
	fHi := priceAt(hi) - marketPrice
	if fLo*fHi > 0 {
		return 0, ErrNoConvergence
	}
	for i := 0; i < ivMaxIter; i++ {
		mid := (lo + hi) / 2
		fMid := priceAt(mid) - marketPrice
		if math.Abs(fMid) < ivTolerance {
			return mid, nil
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}
	return 0, ErrNoConvergence
}

func intrinsic(in Input) float64 {
	if in.Type == models.OptionCall {
		return math.Max(in.Spot-in.Strike, 0)
	}
	return math.Max(in.Strike-in.Spot, 0)
}

func discountedIntrinsic(in Input) float64 {
	fwd := in.Spot * math.Exp((in.Rate-in.Dividend)*in.TimeYears)
	df := math.Exp(-in.Rate * in.TimeYears)
	if in.Type == models.OptionCall {
		return df * math.Max(fwd-in.Strike, 0)
	}
	return df * math.Max(in.Strike-fwd, 0)
}
