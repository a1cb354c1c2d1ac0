package reporting

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/backtest"
	"github.com/ducminhle1904/crypto-statarb-lab/internal/monitor"
)

func csvFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := EnsureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteTradesCSV writes one row per completed trade.
func WriteTradesCSV(trades []backtest.Trade, path string) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.EntryDate.Format(dateFormat),
			t.ExitDate.Format(dateFormat),
			string(t.Direction),
			csvFloat(t.EntryZScore),
			csvFloat(t.ExitZScore),
			csvFloat(t.Size),
			csvFloat(t.PnL),
			string(t.ExitReason),
			strconv.Itoa(t.HoldingDays),
		})
	}
	header := []string{"entry_date", "exit_date", "direction", "entry_zscore", "exit_zscore", "size", "pnl", "exit_reason", "holding_days"}
	return writeCSV(path, header, rows)
}

// WriteEquityCSV writes the equity curve, one row per bar.
func WriteEquityCSV(curve []backtest.EquityPoint, path string) error {
	rows := make([][]string, 0, len(curve))
	for _, p := range curve {
		rows = append(rows, []string{p.Date.Format(dateFormat), csvFloat(p.Equity)})
	}
	return writeCSV(path, []string{"date", "equity"}, rows)
}

// WriteRollingCSV writes the rolling monitor results, one row per window.
func WriteRollingCSV(rolling []monitor.WindowResult, path string) error {
	rows := make([][]string, 0, len(rolling))
	for _, w := range rolling {
		rows = append(rows, []string{
			strconv.Itoa(w.Window.Start),
			strconv.Itoa(w.Window.End),
			w.EndDate.Format(dateFormat),
			csvFloat(w.Result.PValue),
			csvFloat(w.Result.TestStatistic),
			strconv.Itoa(w.Result.Rank),
			csvFloat(w.Result.HalfLife),
			strconv.FormatBool(w.Failed),
		})
	}
	header := []string{"start", "end", "end_date", "pvalue", "test_statistic", "rank", "half_life", "failed"}
	return writeCSV(path, header, rows)
}

// WriteFoldsCSV writes the walk-forward fold details, one row per fold.
func WriteFoldsCSV(folds []backtest.Fold, path string) error {
	rows := make([][]string, 0, len(folds))
	for _, f := range folds {
		rows = append(rows, []string{
			strconv.Itoa(f.Index),
			strconv.Itoa(f.Train.Start),
			strconv.Itoa(f.Train.End),
			strconv.Itoa(f.Test.Start),
			strconv.Itoa(f.Test.End),
			f.Test.EndDate.Format(dateFormat),
			csvFloat(f.HedgeRatio),
			csvFloat(f.HalfLife),
			strconv.Itoa(len(f.Trades)),
			strconv.FormatBool(f.Failed),
		})
	}
	header := []string{"index", "train_start", "train_end", "test_start", "test_end", "test_end_date", "hedge_ratio", "half_life", "trades", "failed"}
	return writeCSV(path, header, rows)
}
