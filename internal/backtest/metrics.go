package backtest

import "math"

// tradingDaysPerYear annualizes the Sharpe ratio of daily equity returns.
const tradingDaysPerYear = 252

// computeMetrics derives the performance summary from a finished equity
// curve and trade list. initialCapital anchors the total-return figure.
func computeMetrics(initialCapital float64, equity []EquityPoint, trades []Trade) Metrics {
	m := Metrics{
		TotalTrades:  len(trades),
		SharpeRatio:  sharpeRatio(equity),
		MaxDrawdown:  maxDrawdown(equity),
		ProfitFactor: profitFactor(trades),
	}

	if len(equity) > 0 && initialCapital > 0 {
		final := equity[len(equity)-1].Equity
		m.TotalReturn = (final - initialCapital) / initialCapital
	}

	holding := 0
	for _, tr := range trades {
		if tr.PnL > 0 {
			m.WinningTrades++
		} else {
			m.LosingTrades++
		}
		holding += tr.HoldingDays
	}
	if len(trades) > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(len(trades))
		m.AvgHoldingDays = float64(holding) / float64(len(trades))
	}

	return m
}

// sharpeRatio is the annualized mean/std of per-bar equity returns, zero
// when the curve is too short or flat to define one.
func sharpeRatio(equity []EquityPoint) float64 {
	if len(equity) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, (equity[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}
	mean, std := meanSampleStd(returns)
	if std < 1e-12 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown is the worst peak-to-trough equity decline as a fraction of
// the peak.
func maxDrawdown(equity []EquityPoint) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, pt := range equity {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak > 0 {
			if dd := (peak - pt.Equity) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// profitFactor is gross profit over gross loss; +Inf when there are gains
// and no losses, zero when there are no trades at all.
func profitFactor(trades []Trade) float64 {
	var profit, loss float64
	for _, tr := range trades {
		if tr.PnL > 0 {
			profit += tr.PnL
		} else {
			loss += math.Abs(tr.PnL)
		}
	}
	if loss == 0 {
		if profit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return profit / loss
}

// stabilityAcross computes the cross-fold hedge-ratio dispersion. It
// returns nil with fewer than two usable ratios: a single estimate has no
// spread, and reporting zeros there would read as perfect stability.
func stabilityAcross(hedgeRatios []float64) *ParameterStability {
	usable := make([]float64, 0, len(hedgeRatios))
	for _, h := range hedgeRatios {
		if !math.IsNaN(h) && !math.IsInf(h, 0) {
			usable = append(usable, h)
		}
	}
	if len(usable) < 2 {
		return nil
	}
	mean, std := meanSampleStd(usable)
	ps := &ParameterStability{
		HedgeRatioMean: mean,
		HedgeRatioStd:  std,
		HedgeRatioCV:   std / mean,
		HedgeRatioMin:  usable[0],
		HedgeRatioMax:  usable[0],
		Folds:          len(usable),
	}
	for _, h := range usable[1:] {
		ps.HedgeRatioMin = math.Min(ps.HedgeRatioMin, h)
		ps.HedgeRatioMax = math.Max(ps.HedgeRatioMax, h)
	}
	return ps
}

// meanSampleStd returns the mean and the n-1 sample standard deviation.
func meanSampleStd(xs []float64) (mean, std float64) {
	for _, v := range xs {
		mean += v
	}
	mean /= float64(len(xs))
	var ss float64
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(len(xs)-1))
	return mean, std
}
