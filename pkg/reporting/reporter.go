// Package reporting renders analysis outcomes for people and for files:
// rounded console tables, CSV extracts, a styled Excel workbook, and a
// JSON document that stays valid when results carry NaN or infinite
// values.
package reporting

import (
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/analysis"
)

// Files lists the artifact paths one WriteAll call produced. Fields for
// artifacts that were not applicable stay empty.
type Files struct {
	JSON     string
	Workbook string
	Rolling  string
	Trades   string
	Equity   string
	Folds    string
}

// List returns the non-empty paths in write order.
func (f Files) List() []string {
	out := make([]string, 0, 6)
	for _, p := range []string{f.JSON, f.Workbook, f.Rolling, f.Trades, f.Equity, f.Folds} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WriteAll writes the complete artifact set for one outcome under dir:
// report.json and report.xlsx always, the CSV extracts when the run
// produced the corresponding data.
func WriteAll(o *analysis.Outcome, dir string) (Files, error) {
	files := Files{
		JSON:     filepath.Join(dir, "report.json"),
		Workbook: filepath.Join(dir, "report.xlsx"),
	}
	if err := WriteJSON(o, files.JSON); err != nil {
		return files, err
	}
	if err := WriteWorkbook(o, files.Workbook); err != nil {
		return files, err
	}
	if !o.Ok() {
		return files, nil
	}

	r := o.Report
	files.Rolling = filepath.Join(dir, "rolling.csv")
	if err := WriteRollingCSV(r.Rolling, files.Rolling); err != nil {
		return files, err
	}
	if r.Backtest != nil {
		files.Trades = filepath.Join(dir, "trades.csv")
		if err := WriteTradesCSV(r.Backtest.Trades, files.Trades); err != nil {
			return files, err
		}
		files.Equity = filepath.Join(dir, "equity.csv")
		if err := WriteEquityCSV(r.Backtest.EquityCurve, files.Equity); err != nil {
			return files, err
		}
		if len(r.Backtest.Folds) > 0 {
			files.Folds = filepath.Join(dir, "folds.csv")
			if err := WriteFoldsCSV(r.Backtest.Folds, files.Folds); err != nil {
				return files, err
			}
		}
	}
	log.Info().Str("dir", dir).Int("files", len(files.List())).Msg("report artifacts written")
	return files, nil
}
