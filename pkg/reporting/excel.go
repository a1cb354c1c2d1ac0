package reporting

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/backtest"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitor"
)

const (
	summarySheet = "Summary"
	rollingSheet = "Rolling"
	tradesSheet  = "Trades"
	equitySheet  = "Equity"
	foldsSheet   = "Folds"
)

type excelStyles struct {
	Header  int
	Title   int
	Base    int
	Number  int
	Percent int
}

// WriteWorkbook writes the full outcome to a styled Excel workbook: a
// Summary sheet always, plus Rolling/Trades/Equity/Folds sheets when the
// run produced them.
func WriteWorkbook(o *analysis.Outcome, path string) error {
	if err := EnsureDir(path); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)

	styles, err := newExcelStyles(fx)
	if err != nil {
		return err
	}

	writeSummarySheet(fx, o, styles)
	if o.Ok() {
		r := o.Report
		fx.NewSheet(rollingSheet)
		writeRollingSheet(fx, r.Rolling, styles)
		if r.Backtest != nil {
			fx.NewSheet(tradesSheet)
			writeTradesSheet(fx, r.Backtest.Trades, styles)
			fx.NewSheet(equitySheet)
			writeEquitySheet(fx, r.Backtest.EquityCurve, styles)
			if len(r.Backtest.Folds) > 0 {
				fx.NewSheet(foldsSheet)
				writeFoldsSheet(fx, r.Backtest.Folds, styles)
			}
		}
	}

	return fx.SaveAs(path)
}

func newExcelStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.Header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Title, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   13,
			Family: "Calibri",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Base, err = fx.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Number, err = fx.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Percent, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, // 0.00%
		Alignment: &excelize.Alignment{
			Horizontal: "right",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "E0E0E0", Style: 1},
			{Type: "right", Color: "E0E0E0", Style: 1},
			{Type: "bottom", Color: "E0E0E0", Style: 1},
		},
	})
	return styles, err
}

// cellFloat keeps workbooks loadable when a value is NaN or infinite.
func cellFloat(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "n/a"
	}
	return f
}

func writeHeaderRow(fx *excelize.File, sheet string, headers []string, styles excelStyles) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.Header)
	}
}

func writeDataRow(fx *excelize.File, sheet string, row int, values []interface{}, styles excelStyles) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		fx.SetCellValue(sheet, cell, v)
		style := styles.Base
		if _, isFloat := v.(float64); isFloat {
			style = styles.Number
		}
		fx.SetCellStyle(sheet, cell, cell, style)
	}
}

func writeSummarySheet(fx *excelize.File, o *analysis.Outcome, styles excelStyles) {
	fx.SetCellValue(summarySheet, "A1", "📊 STATISTICAL ARBITRAGE ANALYSIS")
	fx.SetCellStyle(summarySheet, "A1", "A1", styles.Title)
	fx.SetColWidth(summarySheet, "A", "A", 26)
	fx.SetColWidth(summarySheet, "B", "B", 52)

	row := 3
	kv := func(label string, value interface{}) {
		writeDataRow(fx, summarySheet, row, []interface{}{label, value}, styles)
		row++
	}

	v := o.Validation
	kv("Valid", v.Valid)
	for _, e := range v.Errors {
		kv("Error", e)
	}
	for _, w := range v.Warnings {
		kv("Warning", w)
	}
	for _, rec := range v.Recommendations {
		kv("Recommendation", rec)
	}
	if !o.Ok() {
		return
	}

	r := o.Report
	row++
	kv("Tickers", strings.Join(r.Tickers, " / "))
	kv("Rows", r.Rows)
	kv("Period", r.Config.Period)
	kv("Backtest method", string(r.Config.Method))
	kv("Generated", r.GeneratedAt.Format("2006-01-02 15:04:05"))

	row++
	kv("Baseline method", string(r.Baseline.Method))
	kv("Baseline p-value", cellFloat(r.Baseline.PValue))
	kv("Baseline statistic", cellFloat(r.Baseline.TestStatistic))
	kv("Baseline rank", r.Baseline.Rank)
	kv("Hedge ratio", cellFloat(r.Baseline.HedgeRatio))
	kv("Half-life (bars)", cellFloat(r.Baseline.HalfLife))
	if r.BaselineFailed {
		kv("Baseline failed", true)
	}

	row++
	kv("Stability status", string(r.Stability.Status))
	kv("Max weight drift", cellFloat(r.Stability.MaxWeightDrift))
	kv("Recent p-value", cellFloat(r.Stability.Recent.PValue))
	kv("Windows cointegrated", cellFloat(r.PercentCointegrated))
	kv("Windows failed", fmt.Sprintf("%d of %d", monitor.FailedWindows(r.Rolling), len(r.Rolling)))

	if r.Backtest == nil {
		return
	}
	m := r.Backtest.Metrics
	row++
	kv("Total return", cellFloat(m.TotalReturn))
	kv("Sharpe ratio", cellFloat(m.SharpeRatio))
	kv("Max drawdown", cellFloat(m.MaxDrawdown))
	kv("Win rate", cellFloat(m.WinRate))
	kv("Profit factor", cellFloat(m.ProfitFactor))
	kv("Total trades", m.TotalTrades)
	kv("Avg holding (bars)", cellFloat(m.AvgHoldingDays))
	if ps := m.ParameterStability; ps != nil {
		kv("Hedge ratio mean", cellFloat(ps.HedgeRatioMean))
		kv("Hedge ratio std", cellFloat(ps.HedgeRatioStd))
		kv("Hedge ratio CV", cellFloat(ps.HedgeRatioCV))
		kv("Stability folds", ps.Folds)
	}
}

func writeRollingSheet(fx *excelize.File, rolling []monitor.WindowResult, styles excelStyles) {
	writeHeaderRow(fx, rollingSheet, []string{"Start", "End", "End Date", "P-Value", "Statistic", "Rank", "Half-Life", "Failed"}, styles)
	fx.SetColWidth(rollingSheet, "C", "C", 12)
	for i, w := range rolling {
		writeDataRow(fx, rollingSheet, i+2, []interface{}{
			w.Window.Start,
			w.Window.End,
			w.EndDate.Format(dateFormat),
			cellFloat(w.Result.PValue),
			cellFloat(w.Result.TestStatistic),
			w.Result.Rank,
			cellFloat(w.Result.HalfLife),
			w.Failed,
		}, styles)
	}
}

func writeTradesSheet(fx *excelize.File, trades []backtest.Trade, styles excelStyles) {
	writeHeaderRow(fx, tradesSheet, []string{"Entry", "Exit", "Direction", "Entry Z", "Exit Z", "Size", "PnL", "Exit Reason", "Bars"}, styles)
	fx.SetColWidth(tradesSheet, "A", "B", 12)
	fx.SetColWidth(tradesSheet, "C", "C", 14)
	fx.SetColWidth(tradesSheet, "H", "H", 20)
	for i, t := range trades {
		writeDataRow(fx, tradesSheet, i+2, []interface{}{
			t.EntryDate.Format(dateFormat),
			t.ExitDate.Format(dateFormat),
			string(t.Direction),
			cellFloat(t.EntryZScore),
			cellFloat(t.ExitZScore),
			cellFloat(t.Size),
			cellFloat(t.PnL),
			string(t.ExitReason),
			t.HoldingDays,
		}, styles)
	}
}

func writeEquitySheet(fx *excelize.File, curve []backtest.EquityPoint, styles excelStyles) {
	writeHeaderRow(fx, equitySheet, []string{"Date", "Equity"}, styles)
	fx.SetColWidth(equitySheet, "A", "A", 12)
	fx.SetColWidth(equitySheet, "B", "B", 14)
	for i, p := range curve {
		writeDataRow(fx, equitySheet, i+2, []interface{}{
			p.Date.Format(dateFormat),
			cellFloat(p.Equity),
		}, styles)
	}
}

func writeFoldsSheet(fx *excelize.File, folds []backtest.Fold, styles excelStyles) {
	writeHeaderRow(fx, foldsSheet, []string{"#", "Train Start", "Train End", "Test Start", "Test End", "Test End Date", "Hedge", "Half-Life", "Trades", "Failed"}, styles)
	fx.SetColWidth(foldsSheet, "F", "F", 14)
	for i, f := range folds {
		writeDataRow(fx, foldsSheet, i+2, []interface{}{
			f.Index,
			f.Train.Start,
			f.Train.End,
			f.Test.Start,
			f.Test.End,
			f.Test.EndDate.Format(dateFormat),
			cellFloat(f.HedgeRatio),
			cellFloat(f.HalfLife),
			len(f.Trades),
			f.Failed,
		}, styles)
	}
}
