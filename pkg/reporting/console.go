package reporting

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/backtest"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitor"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/validate"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/config"
)

const (
	dateFormat    = "2006-01-02"
	maxWindowRows = 8
	maxTradeRows  = 20
)

// Console renders outcomes as rounded tables, one section per concern.
type Console struct {
	out io.Writer
}

// NewConsole returns a console renderer. A nil writer means stdout.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

func (c *Console) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

// Outcome prints the whole analysis: validation findings first, then the
// summary sections when the run produced a report.
func (c *Console) Outcome(o *analysis.Outcome) {
	c.Validation(o.Validation)
	if !o.Ok() {
		fmt.Fprintln(c.out, "❌ Analysis aborted: configuration is invalid for this sample.")
		return
	}
	r := o.Report
	c.summary(r)
	c.stability(r)
	c.rolling(r.Rolling)
	if r.Backtest != nil {
		c.backtest(r.Backtest)
		c.folds(r.Backtest.Folds)
		c.trades(r.Backtest.Trades)
	}
}

// Validation prints errors, warnings, and recommendations. A clean result
// prints nothing.
func (c *Console) Validation(v validate.Result) {
	if len(v.Errors) == 0 && len(v.Warnings) == 0 && len(v.Recommendations) == 0 {
		return
	}
	t := c.newTable("PARAMETER VALIDATION")
	for _, e := range v.Errors {
		t.AppendRow(table.Row{"❌ error", e})
	}
	for _, w := range v.Warnings {
		t.AppendRow(table.Row{"⚠️ warning", w})
	}
	for _, r := range v.Recommendations {
		t.AppendRow(table.Row{"💡 hint", r})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 11, Align: text.AlignLeft},
		{Number: 2, WidthMax: 72, Align: text.AlignLeft},
	})
	t.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) summary(r *analysis.Report) {
	t := c.newTable("ANALYSIS SUMMARY")
	t.AppendRows([]table.Row{
		{"📊 Tickers", strings.Join(r.Tickers, " / ")},
		{"📅 Rows", fmt.Sprintf("%d (%s)", r.Rows, r.Config.Period)},
		{"🔬 Test", string(r.Baseline.Method)},
		{"🧮 Backtest", string(r.Config.Method)},
		{"🕒 Generated", r.GeneratedAt.Format("2006-01-02 15:04:05")},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"📈 Baseline p-value", fnum(r.Baseline.PValue, 4)},
		{"📈 Test statistic", fnum(r.Baseline.TestStatistic, 4)},
		{"📈 Rank", strconv.Itoa(r.Baseline.Rank)},
		{"⚖️ Weights", weightString(r.Baseline.Weights, r.Baseline.HedgeRatio)},
		{"⏳ Half-life", halfLifeString(r.Baseline.HalfLife)},
	})
	if r.BaselineFailed {
		t.AppendSeparator()
		t.AppendRow(table.Row{"🚨 Baseline", "estimation failed, placeholder values shown"})
	}
	t.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) stability(r *analysis.Report) {
	t := c.newTable("RELATIONSHIP STABILITY")
	t.AppendRows([]table.Row{
		{"Status", statusBadge(r.Stability.Status)},
		{"Max weight drift", fnum(r.Stability.MaxWeightDrift, 4)},
		{"Recent p-value", fnum(r.Stability.Recent.PValue, 4)},
		{"Recent rank", strconv.Itoa(r.Stability.Recent.Rank)},
		{"Windows cointegrated", fmt.Sprintf("%.1f%%", r.PercentCointegrated*100)},
		{"Windows failed", fmt.Sprintf("%d of %d", monitor.FailedWindows(r.Rolling), len(r.Rolling))},
	})
	t.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) rolling(rolling []monitor.WindowResult) {
	if len(rolling) == 0 {
		return
	}
	start := len(rolling) - maxWindowRows
	if start < 0 {
		start = 0
	}
	t := c.newTable(fmt.Sprintf("ROLLING WINDOWS (last %d of %d)", len(rolling)-start, len(rolling)))
	t.AppendHeader(table.Row{"End Date", "P-Value", "Rank", "Half-Life", "State"})
	for _, w := range rolling[start:] {
		state := "ok"
		if w.Failed {
			state = "failed"
		}
		t.AppendRow(table.Row{
			w.EndDate.Format(dateFormat),
			fnum(w.Result.PValue, 4),
			w.Result.Rank,
			halfLifeString(w.Result.HalfLife),
			state,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) backtest(rep *backtest.Report) {
	m := rep.Metrics
	pf := fnum(m.ProfitFactor, 2)
	if math.IsInf(m.ProfitFactor, 1) {
		pf = "∞"
	}
	t := c.newTable("BACKTEST PERFORMANCE")
	t.AppendRows([]table.Row{
		{"💰 Total return", fmt.Sprintf("%.2f%%", m.TotalReturn*100)},
		{"📊 Sharpe ratio", fnum(m.SharpeRatio, 2)},
		{"📉 Max drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown*100)},
		{"💹 Profit factor", pf},
		{"🔄 Trades", fmt.Sprintf("%d (✅ %d / ❌ %d)", m.TotalTrades, m.WinningTrades, m.LosingTrades)},
		{"🎯 Win rate", fmt.Sprintf("%.1f%%", m.WinRate*100)},
		{"⏱ Avg holding", fmt.Sprintf("%.1f bars", m.AvgHoldingDays)},
	})
	if ps := m.ParameterStability; ps != nil {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"⚖️ Hedge ratio", fmt.Sprintf("%s ± %s", fnum(ps.HedgeRatioMean, 4), fnum(ps.HedgeRatioStd, 4))},
			{"⚖️ Hedge CV", fnum(ps.HedgeRatioCV, 4)},
			{"⚖️ Hedge range", fmt.Sprintf("[%s, %s]", fnum(ps.HedgeRatioMin, 4), fnum(ps.HedgeRatioMax, 4))},
			{"🧩 Folds used", strconv.Itoa(ps.Folds)},
		})
	}
	t.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) folds(folds []backtest.Fold) {
	if len(folds) == 0 {
		return
	}
	t := c.newTable("WALK-FORWARD FOLDS")
	t.AppendHeader(table.Row{"#", "Train", "Test", "Test End", "Hedge", "Half-Life", "Trades", "State"})
	for _, f := range folds {
		state := "ok"
		if f.Failed {
			state = "failed"
		}
		t.AppendRow(table.Row{
			f.Index,
			fmt.Sprintf("%d..%d", f.Train.Start, f.Train.End),
			fmt.Sprintf("%d..%d", f.Test.Start, f.Test.End),
			f.Test.EndDate.Format(dateFormat),
			fnum(f.HedgeRatio, 4),
			halfLifeString(f.HalfLife),
			len(f.Trades),
			state,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(c.out)
}

func (c *Console) trades(trades []backtest.Trade) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "No trades were taken.")
		return
	}
	title := "TRADES"
	shown := trades
	if len(trades) > maxTradeRows {
		shown = trades[:maxTradeRows]
		title = fmt.Sprintf("TRADES (first %d of %d)", maxTradeRows, len(trades))
	}
	t := c.newTable(title)
	t.AppendHeader(table.Row{"Entry", "Exit", "Side", "Entry Z", "Exit Z", "Size", "PnL", "Exit Reason", "Bars"})
	for _, tr := range shown {
		t.AppendRow(table.Row{
			tr.EntryDate.Format(dateFormat),
			tr.ExitDate.Format(dateFormat),
			string(tr.Direction),
			fnum(tr.EntryZScore, 2),
			fnum(tr.ExitZScore, 2),
			fmt.Sprintf("%.2f", tr.Size),
			fmt.Sprintf("%+.2f", tr.PnL),
			string(tr.ExitReason),
			tr.HoldingDays,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(c.out)
}

// Scan prints ranked pair-scan rows, best candidates first.
func (c *Console) Scan(rows []analysis.PairScanRow) {
	if len(rows) == 0 {
		fmt.Fprintln(c.out, "No pairs to scan.")
		return
	}
	t := c.newTable("PAIR SCAN")
	t.AppendHeader(table.Row{"Pair", "P-Value", "Statistic", "Hedge", "Half-Life", "Verdict"})
	for _, row := range rows {
		verdict := "not cointegrated"
		switch {
		case row.Failed:
			verdict = "❌ failed"
		case row.Cointegrated:
			verdict = "✅ cointegrated"
		}
		t.AppendRow(table.Row{
			row.TickerA + " / " + row.TickerB,
			fnum(row.PValue, 4),
			fnum(row.TestStatistic, 4),
			fnum(row.HedgeRatio, 4),
			halfLifeString(row.HalfLife),
			verdict,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(c.out)
}

// Suggestion prints the adviser's parameter pick for a sample size.
func (c *Console) Suggestion(dataLength int, s validate.Suggestion) {
	t := c.newTable(fmt.Sprintf("SUGGESTED PARAMETERS (%d rows)", dataLength))
	t.AppendRows([]table.Row{
		{"Method", string(s.Method)},
		{"Rolling window", s.RollingWindow},
		{"Rolling step", s.RollingStep},
		{"Z-score window", s.ZScoreWindow},
	})
	switch s.Method {
	case config.MethodWalkForward:
		t.AppendRows([]table.Row{
			{"Train window", s.TrainWindow},
			{"Test window", s.TestWindow},
		})
	case config.MethodTrainTestSplit:
		t.AppendRow(table.Row{"Train fraction", fmt.Sprintf("%.0f%%", s.TrainPct*100)})
	}
	t.Render()
	fmt.Fprintln(c.out)
}

// Optimization prints threshold-sweep candidates, best first, capped at top
// rows when top is positive.
func (c *Console) Optimization(results []backtest.OptimizationResult, top int) {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No threshold candidates evaluated.")
		return
	}
	title := "THRESHOLD SWEEP"
	shown := results
	if top > 0 && len(results) > top {
		shown = results[:top]
		title = fmt.Sprintf("THRESHOLD SWEEP (top %d of %d)", top, len(results))
	}
	t := c.newTable(title)
	t.AppendHeader(table.Row{"#", "Entry", "Exit", "Stop", "Sharpe", "Return", "Max DD", "Trades", "Win Rate"})
	for i, res := range shown {
		m := res.Report.Metrics
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.2f", res.Thresholds.Entry),
			fmt.Sprintf("%.2f", res.Thresholds.Exit),
			fmt.Sprintf("%.2f", res.Thresholds.Stop),
			fnum(m.SharpeRatio, 2),
			fmt.Sprintf("%.2f%%", m.TotalReturn*100),
			fmt.Sprintf("%.2f%%", m.MaxDrawdown*100),
			m.TotalTrades,
			fmt.Sprintf("%.1f%%", m.WinRate*100),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	t.Render()
	fmt.Fprintln(c.out)
}

func fnum(f float64, prec int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(f, 'f', prec, 64)
}

func halfLifeString(hl float64) string {
	if math.IsInf(hl, 1) {
		return "∞"
	}
	if math.IsNaN(hl) || hl <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f bars", hl)
}

func weightString(w []float64, hedge float64) string {
	if len(w) == 0 {
		return "n/a"
	}
	if len(w) == 2 {
		return fmt.Sprintf("hedge ratio %.4f", hedge)
	}
	parts := make([]string, len(w))
	for i, x := range w {
		parts[i] = fmt.Sprintf("%.4f", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func statusBadge(s monitor.Status) string {
	switch s {
	case monitor.StatusStable:
		return "✅ STABLE"
	case monitor.StatusUnstable:
		return "⚠️ UNSTABLE"
	case monitor.StatusBroken:
		return "🚨 BROKEN"
	default:
		return string(s)
	}
}
