package data

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestCSVProvider_AlignsAndLogs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAA.csv", `date,close
2023-01-02,100
2023-01-03,110
2023-01-04,120
2023-01-05,130
`)
	// BBB is missing 2023-01-03 and has an extra trailing day; only the
	// shared dates should survive the join.
	writeFile(t, dir, "BBB.csv", `date,close
2023-01-02,50
2023-01-04,55
2023-01-05,60
2023-01-06,65
`)

	table, err := NewCSVProvider(dir).Load(context.Background(), Request{
		Tickers: []string{"AAA", "BBB"},
		Period:  "6mo",
	})
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"AAA", "BBB"}, table.Tickers())
	assert.Equal(t, "6mo", table.Period())
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), table.Date(0))
	assert.Equal(t, time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC), table.Date(1))
	assert.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), table.Date(2))
	assert.Equal(t, []float64{math.Log(100), math.Log(120), math.Log(130)}, table.ColumnAt(0))
	assert.Equal(t, []float64{math.Log(50), math.Log(55), math.Log(60)}, table.ColumnAt(1))
}

func TestCSVProvider_SkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "CCC.csv", `date,close
2023-01-02,100
notadate,105
2023-01-03,abc
2023-01-04,-5
2023-01-05,0
2023-01-06,110
`)

	table, err := NewCSVProvider(dir).Load(context.Background(), Request{Tickers: []string{"CCC"}})
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), table.Date(0))
	assert.Equal(t, time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC), table.Date(1))
	assert.Equal(t, []float64{math.Log(100), math.Log(110)}, table.ColumnAt(0))
}

func TestCSVProvider_HeaderVariants(t *testing.T) {
	dir := t.TempDir()
	// Exchange-style OHLCV dump with epoch-millisecond timestamps.
	writeFile(t, dir, "DDD.csv", `timestamp,open,high,low,close,volume
1672617600000,99,101,98,100,1000
1672704000000,100,112,99,110,1200
`)
	writeFile(t, dir, "EEE.csv", `Date,Adj Close
2023-01-02,40
2023-01-03,44
`)

	table, err := NewCSVProvider(dir).Load(context.Background(), Request{Tickers: []string{"DDD", "EEE"}})
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), table.Date(0))
	assert.Equal(t, []float64{math.Log(100), math.Log(110)}, table.ColumnAt(0))
	assert.Equal(t, []float64{math.Log(40), math.Log(44)}, table.ColumnAt(1))
}

func TestCSVProvider_LimitKeepsLatest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "FFF.csv", `date,close
2023-01-02,101
2023-01-03,102
2023-01-04,103
2023-01-05,104
2023-01-06,105
`)

	table, err := NewCSVProvider(dir).Load(context.Background(), Request{Tickers: []string{"FFF"}, Limit: 3})
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Equal(t, time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC), table.Date(0))
	assert.Equal(t, []float64{math.Log(103), math.Log(104), math.Log(105)}, table.ColumnAt(0))
}

func TestCSVProvider_MissingFile(t *testing.T) {
	_, err := NewCSVProvider(t.TempDir()).Load(context.Background(), Request{Tickers: []string{"NOPE"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOPE")
}

func TestCSVProvider_UnrecognizableHeader(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "GGG.csv", `foo,bar
1,2
`)

	_, err := NewCSVProvider(dir).Load(context.Background(), Request{Tickers: []string{"GGG"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognizable date/close columns")
}

func TestCSVProvider_AllRowsBad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "HHH.csv", `date,close
notadate,100
2023-01-02,junk
`)

	_, err := NewCSVProvider(dir).Load(context.Background(), Request{Tickers: []string{"HHH"}})
	require.ErrorIs(t, err, ErrNoRows)
}

func TestCSVProvider_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVProvider(t.TempDir()).Load(ctx, Request{Tickers: []string{"AAA"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAlignAndLog_TooFewCommonDates(t *testing.T) {
	d1 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2023, 1, 4, 0, 0, 0, 0, time.UTC)

	_, err := alignAndLog(
		[]string{"A", "B"},
		[]closes{{d1: 100, d2: 110}, {d2: 50, d3: 55}},
		"1y", 0,
	)
	require.ErrorIs(t, err, ErrNoOverlap)
}

func TestWriteTickerCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	day0 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for ticker, start := range map[string]float64{"AAA": 100, "BBB": 50} {
		rows := make([]Close, 3)
		for i := range rows {
			rows[i] = Close{Date: day0.AddDate(0, 0, i), Price: start + float64(i)}
		}
		path, err := WriteTickerCSV(dir, ticker, rows)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ticker+".csv"), path)
	}

	table, err := NewCSVProvider(dir).Load(context.Background(), Request{
		Tickers: []string{"AAA", "BBB"},
		Period:  "1y",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []float64{math.Log(100), math.Log(101), math.Log(102)}, table.ColumnAt(0))
	assert.Equal(t, []float64{math.Log(50), math.Log(51), math.Log(52)}, table.ColumnAt(1))
}

func TestWriteTickerCSV_Empty(t *testing.T) {
	_, err := WriteTickerCSV(t.TempDir(), "AAA", nil)
	require.ErrorIs(t, err, ErrNoRows)
}
