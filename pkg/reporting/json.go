package reporting

import (
	"encoding/json"
	"math"
	"os"
	"time"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/backtest"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitor"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// jsFloat marshals non-finite values as null so the document stays valid
// JSON. Failed folds carry NaN hedge ratios and non-reverting spreads carry
// infinite half-lives; encoding/json rejects both outright.
type jsFloat float64

func (f jsFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func jsFloats(vs []float64) []jsFloat {
	if vs == nil {
		return nil
	}
	out := make([]jsFloat, len(vs))
	for i, v := range vs {
		out[i] = jsFloat(v)
	}
	return out
}

type jsonDocument struct {
	Validation jsonValidation `json:"validation"`
	Report     *jsonReport    `json:"report"`
}

type jsonValidation struct {
	Valid           bool     `json:"valid"`
	Errors          []string `json:"errors,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

type jsonReport struct {
	GeneratedAt         time.Time             `json:"generated_at"`
	Config              config.AnalysisConfig `json:"config"`
	Tickers             []string              `json:"tickers"`
	Rows                int                   `json:"rows"`
	Baseline            jsonTestResult        `json:"baseline"`
	BaselineFailed      bool                  `json:"baseline_failed,omitempty"`
	Rolling             []jsonWindow          `json:"rolling"`
	PercentCointegrated jsFloat               `json:"percent_cointegrated"`
	Stability           jsonStability         `json:"stability"`
	Backtest            *jsonBacktest         `json:"backtest,omitempty"`
}

type jsonTestResult struct {
	Method        string    `json:"method"`
	TestStatistic jsFloat   `json:"test_statistic"`
	PValue        jsFloat   `json:"p_value"`
	Rank          int       `json:"rank"`
	Weights       []jsFloat `json:"weights,omitempty"`
	HedgeRatio    jsFloat   `json:"hedge_ratio"`
	Intercept     jsFloat   `json:"intercept"`
	HalfLife      jsFloat   `json:"half_life"`
	Eigenvalues   []jsFloat `json:"eigenvalues,omitempty"`
	TraceStats    []jsFloat `json:"trace_stats,omitempty"`
}

type jsonWindow struct {
	Span    jsonSpan       `json:"window"`
	EndDate time.Time      `json:"end_date"`
	Result  jsonTestResult `json:"result"`
	Failed  bool           `json:"failed,omitempty"`
}

type jsonSpan struct {
	Start   int       `json:"start"`
	End     int       `json:"end"`
	EndDate time.Time `json:"end_date"`
}

type jsonStability struct {
	Status         string         `json:"status"`
	MaxWeightDrift jsFloat        `json:"max_weight_drift"`
	Recent         jsonTestResult `json:"recent"`
}

type jsonBacktest struct {
	Method      string            `json:"method"`
	EquityCurve []jsonEquityPoint `json:"equity_curve"`
	Trades      []jsonTrade       `json:"trades"`
	Folds       []jsonFold        `json:"folds,omitempty"`
	Metrics     jsonMetrics       `json:"metrics"`
}

type jsonEquityPoint struct {
	Date   time.Time `json:"date"`
	Equity jsFloat   `json:"equity"`
}

type jsonTrade struct {
	EntryDate   time.Time `json:"entry_date"`
	ExitDate    time.Time `json:"exit_date"`
	Direction   string    `json:"direction"`
	EntryZScore jsFloat   `json:"entry_zscore"`
	ExitZScore  jsFloat   `json:"exit_zscore"`
	Size        jsFloat   `json:"size"`
	PnL         jsFloat   `json:"pnl"`
	ExitReason  string    `json:"exit_reason"`
	HoldingDays int       `json:"holding_days"`
}

type jsonFold struct {
	Index      int       `json:"index"`
	Train      jsonSpan  `json:"train"`
	Test       jsonSpan  `json:"test"`
	HedgeRatio jsFloat   `json:"hedge_ratio"`
	Weights    []jsFloat `json:"weights,omitempty"`
	HalfLife   jsFloat   `json:"half_life"`
	Failed     bool      `json:"failed,omitempty"`
	Trades     int       `json:"trades"`
}

type jsonMetrics struct {
	TotalReturn        jsFloat        `json:"total_return"`
	SharpeRatio        jsFloat        `json:"sharpe_ratio"`
	MaxDrawdown        jsFloat        `json:"max_drawdown"`
	WinRate            jsFloat        `json:"win_rate"`
	ProfitFactor       jsFloat        `json:"profit_factor"`
	TotalTrades        int            `json:"total_trades"`
	WinningTrades      int            `json:"winning_trades"`
	LosingTrades       int            `json:"losing_trades"`
	AvgHoldingDays     jsFloat        `json:"avg_holding_days"`
	ParameterStability *jsonStability2 `json:"parameter_stability,omitempty"`
}

type jsonStability2 struct {
	HedgeRatioMean jsFloat `json:"hedge_ratio_mean"`
	HedgeRatioStd  jsFloat `json:"hedge_ratio_std"`
	HedgeRatioCV   jsFloat `json:"hedge_ratio_cv"`
	HedgeRatioMin  jsFloat `json:"hedge_ratio_min"`
	HedgeRatioMax  jsFloat `json:"hedge_ratio_max"`
	Folds          int     `json:"folds"`
}

func buildDocument(o *analysis.Outcome) jsonDocument {
	doc := jsonDocument{
		Validation: jsonValidation{
			Valid:           o.Validation.Valid,
			Errors:          o.Validation.Errors,
			Warnings:        o.Validation.Warnings,
			Recommendations: o.Validation.Recommendations,
		},
	}
	if o.Report == nil {
		return doc
	}
	r := o.Report
	rep := &jsonReport{
		GeneratedAt:         r.GeneratedAt,
		Config:              r.Config,
		Tickers:             r.Tickers,
		Rows:                r.Rows,
		Baseline:            testResultView(r.Baseline),
		BaselineFailed:      r.BaselineFailed,
		Rolling:             make([]jsonWindow, len(r.Rolling)),
		PercentCointegrated: jsFloat(r.PercentCointegrated),
		Stability: jsonStability{
			Status:         string(r.Stability.Status),
			MaxWeightDrift: jsFloat(r.Stability.MaxWeightDrift),
			Recent:         testResultView(r.Stability.Recent),
		},
	}
	for i, w := range r.Rolling {
		rep.Rolling[i] = jsonWindow{
			Span:    spanView(w.Window),
			EndDate: w.EndDate,
			Result:  testResultView(w.Result),
			Failed:  w.Failed,
		}
	}
	if r.Backtest != nil {
		rep.Backtest = backtestView(r.Backtest)
	}
	doc.Report = rep
	return doc
}

func testResultView(r coint.Result) jsonTestResult {
	return jsonTestResult{
		Method:        string(r.Method),
		TestStatistic: jsFloat(r.TestStatistic),
		PValue:        jsFloat(r.PValue),
		Rank:          r.Rank,
		Weights:       jsFloats(r.Weights),
		HedgeRatio:    jsFloat(r.HedgeRatio),
		Intercept:     jsFloat(r.Intercept),
		HalfLife:      jsFloat(r.HalfLife),
		Eigenvalues:   jsFloats(r.Eigenvalues),
		TraceStats:    jsFloats(r.TraceStats),
	}
}

func spanView(w types.Window) jsonSpan {
	return jsonSpan{Start: w.Start, End: w.End, EndDate: w.EndDate}
}

func backtestView(rep *backtest.Report) *jsonBacktest {
	out := &jsonBacktest{
		Method:      rep.Method,
		EquityCurve: make([]jsonEquityPoint, len(rep.EquityCurve)),
		Trades:      make([]jsonTrade, len(rep.Trades)),
		Metrics: jsonMetrics{
			TotalReturn:    jsFloat(rep.Metrics.TotalReturn),
			SharpeRatio:    jsFloat(rep.Metrics.SharpeRatio),
			MaxDrawdown:    jsFloat(rep.Metrics.MaxDrawdown),
			WinRate:        jsFloat(rep.Metrics.WinRate),
			ProfitFactor:   jsFloat(rep.Metrics.ProfitFactor),
			TotalTrades:    rep.Metrics.TotalTrades,
			WinningTrades:  rep.Metrics.WinningTrades,
			LosingTrades:   rep.Metrics.LosingTrades,
			AvgHoldingDays: jsFloat(rep.Metrics.AvgHoldingDays),
		},
	}
	if ps := rep.Metrics.ParameterStability; ps != nil {
		out.Metrics.ParameterStability = &jsonStability2{
			HedgeRatioMean: jsFloat(ps.HedgeRatioMean),
			HedgeRatioStd:  jsFloat(ps.HedgeRatioStd),
			HedgeRatioCV:   jsFloat(ps.HedgeRatioCV),
			HedgeRatioMin:  jsFloat(ps.HedgeRatioMin),
			HedgeRatioMax:  jsFloat(ps.HedgeRatioMax),
			Folds:          ps.Folds,
		}
	}
	for i, p := range rep.EquityCurve {
		out.EquityCurve[i] = jsonEquityPoint{Date: p.Date, Equity: jsFloat(p.Equity)}
	}
	for i, t := range rep.Trades {
		out.Trades[i] = jsonTrade{
			EntryDate:   t.EntryDate,
			ExitDate:    t.ExitDate,
			Direction:   string(t.Direction),
			EntryZScore: jsFloat(t.EntryZScore),
			ExitZScore:  jsFloat(t.ExitZScore),
			Size:        jsFloat(t.Size),
			PnL:         jsFloat(t.PnL),
			ExitReason:  string(t.ExitReason),
			HoldingDays: t.HoldingDays,
		}
	}
	for _, f := range rep.Folds {
		out.Folds = append(out.Folds, jsonFold{
			Index:      f.Index,
			Train:      spanView(f.Train),
			Test:       spanView(f.Test),
			HedgeRatio: jsFloat(f.HedgeRatio),
			Weights:    jsFloats(f.Weights),
			HalfLife:   jsFloat(f.HalfLife),
			Failed:     f.Failed,
			Trades:     len(f.Trades),
		})
	}
	return out
}

// FormatJSON renders an outcome as an indented JSON document.
func FormatJSON(o *analysis.Outcome) ([]byte, error) {
	return json.MarshalIndent(buildDocument(o), "", "  ")
}

// WriteJSON writes the outcome document to a file.
func WriteJSON(o *analysis.Outcome, path string) error {
	data, err := FormatJSON(o)
	if err != nil {
		return err
	}
	if err := EnsureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

type jsonScanRow struct {
	TickerA       string  `json:"ticker_a"`
	TickerB       string  `json:"ticker_b"`
	PValue        jsFloat `json:"p_value"`
	TestStatistic jsFloat `json:"test_statistic"`
	HedgeRatio    jsFloat `json:"hedge_ratio"`
	HalfLife      jsFloat `json:"half_life"`
	Cointegrated  bool    `json:"cointegrated"`
	Failed        bool    `json:"failed,omitempty"`
}

// FormatScanJSON renders pair-scan rows as an indented JSON array.
func FormatScanJSON(rows []analysis.PairScanRow) ([]byte, error) {
	view := make([]jsonScanRow, len(rows))
	for i, r := range rows {
		view[i] = jsonScanRow{
			TickerA:       r.TickerA,
			TickerB:       r.TickerB,
			PValue:        jsFloat(r.PValue),
			TestStatistic: jsFloat(r.TestStatistic),
			HedgeRatio:    jsFloat(r.HedgeRatio),
			HalfLife:      jsFloat(r.HalfLife),
			Cointegrated:  r.Cointegrated,
			Failed:        r.Failed,
		}
	}
	return json.MarshalIndent(view, "", "  ")
}

// WriteScanJSON writes pair-scan rows to a file.
func WriteScanJSON(rows []analysis.PairScanRow, path string) error {
	data, err := FormatScanJSON(rows)
	if err != nil {
		return err
	}
	if err := EnsureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

type jsonSweepRow struct {
	Thresholds backtest.ThresholdSet `json:"thresholds"`
	Metrics    jsonMetrics           `json:"metrics"`
}

// FormatOptimizationJSON renders threshold-sweep results as an indented JSON
// array, keeping candidate order. Full per-candidate reports are dropped;
// the metrics block is what the sweep is ranked on.
func FormatOptimizationJSON(results []backtest.OptimizationResult) ([]byte, error) {
	view := make([]jsonSweepRow, len(results))
	for i, res := range results {
		view[i] = jsonSweepRow{
			Thresholds: res.Thresholds,
			Metrics:    backtestView(res.Report).Metrics,
		}
	}
	return json.MarshalIndent(view, "", "  ")
}
