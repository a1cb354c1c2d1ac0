package analysis

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// PairScanRow is one ticker pair's test outcome in a universe scan.
type PairScanRow struct {
	TickerA       string  `json:"ticker_a"`
	TickerB       string  `json:"ticker_b"`
	PValue        float64 `json:"p_value"`
	TestStatistic float64 `json:"test_statistic"`
	HedgeRatio    float64 `json:"hedge_ratio"`
	HalfLife      float64 `json:"half_life"`
	Cointegrated  bool    `json:"cointegrated"`
	// Failed marks pairs whose test errored; they score p-value 1.0.
	Failed bool `json:"failed,omitempty"`
}

// ScanPairs runs the pair test on every unordered ticker combination in the
// table and returns the rows ordered by ascending p-value, strongest
// evidence first. A pair whose test fails numerically is recorded as a
// non-cointegrated row, mirroring the monitor's per-window isolation.
func ScanPairs(table *types.PriceTable, tester coint.Tester, significance float64) []PairScanRow {
	tickers := table.Tickers()
	var rows []PairScanRow
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			row := PairScanRow{TickerA: tickers[i], TickerB: tickers[j]}
			res, err := tester.TestPair(table.ColumnAt(i), table.ColumnAt(j))
			if err != nil {
				log.Debug().
					Str("a", tickers[i]).
					Str("b", tickers[j]).
					Err(err).
					Msg("pair test failed; recording as non-cointegrated")
				row.PValue = 1.0
				row.Failed = true
			} else {
				row.PValue = res.PValue
				row.TestStatistic = res.TestStatistic
				row.HedgeRatio = res.HedgeRatio
				row.HalfLife = res.HalfLife
				row.Cointegrated = res.Cointegrated(significance)
			}
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].PValue < rows[b].PValue })
	return rows
}
