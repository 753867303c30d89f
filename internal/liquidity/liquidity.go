package liquidity

// Score grades how tradeable a contract is on a 0-100 scale from its
// relative bid-ask spread, session volume, and open interest. A missing
// spread (no usable two-sided quote) contributes nothing.
func Score(spreadPct *float64, volume, openInterest int64) int {
	score := spreadComponent(spreadPct) + volumeComponent(volume) + openInterestComponent(openInterest)
	if score > 100 {
		score = 100
	}
	return score
}

// spreadComponent awards up to 40 points. Tight spreads (<=5%) get full
// marks, then the award decays linearly over two bands and hits zero at 20%.
func spreadComponent(spreadPct *float64) int {
	if spreadPct == nil {
		return 0
	}
	pct := *spreadPct
	switch {
	case pct <= 0.05:
		return 40
	case pct <= 0.10:
		return int(30 - (pct-0.05)/0.05*10)
	case pct <= 0.20:
		return int(20 - (pct-0.10)/0.10*20)
	default:
		return 0
	}
}

func volumeComponent(volume int64) int {
	switch {
	case volume >= 100:
		return 30
	case volume >= 50:
		return 20
	case volume >= 10:
		return 10
	default:
		return 0
	}
}

func openInterestComponent(openInterest int64) int {
	switch {
	case openInterest >= 1000:
		return 30
	case openInterest >= 500:
		return 20
	case openInterest >= 100:
		return 10
	default:
		return 0
	}
}
