package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/rs/zerolog/log"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

const bybitMaxKlines = 1000

// BybitProvider pulls daily spot candles from Bybit's v5 market endpoint.
// Kline data is public, so API credentials are optional; when present they
// are picked up from BYBIT_API_KEY / BYBIT_API_SECRET.
type BybitProvider struct {
	client   *bybit_api.Client
	category string
}

// NewBybitProvider builds a provider against the Bybit mainnet.
func NewBybitProvider() *BybitProvider {
	client := bybit_api.NewBybitHttpClient(
		os.Getenv("BYBIT_API_KEY"),
		os.Getenv("BYBIT_API_SECRET"),
		bybit_api.WithBaseURL(bybit_api.MAINNET),
	)
	return &BybitProvider{client: client, category: "spot"}
}

// Load implements Provider.
func (p *BybitProvider) Load(ctx context.Context, req Request) (*types.PriceTable, error) {
	if len(req.Tickers) == 0 {
		return nil, fmt.Errorf("bybit load: no tickers requested")
	}
	limit := req.Limit
	if limit <= 0 || limit > bybitMaxKlines {
		limit = bybitMaxKlines
	}
	series := make([]closes, len(req.Tickers))
	for i, ticker := range req.Tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := p.fetchTicker(ctx, ticker, limit)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", ticker, err)
		}
		log.Debug().Str("symbol", ticker).Int("rows", len(s)).Msg("fetched daily klines")
		series[i] = s
	}
	return alignAndLog(req.Tickers, series, req.Period, req.Limit)
}

// Close is one raw daily close, the unit of the CSV export workflow.
type Close struct {
	Date  time.Time
	Price float64
}

// FetchCloses returns the raw daily closes for one symbol, oldest first.
// This is the export path behind the fetch command; Load applies the log
// transform and cross-ticker alignment instead.
func (p *BybitProvider) FetchCloses(ctx context.Context, symbol string, limit int) ([]Close, error) {
	if limit <= 0 || limit > bybitMaxKlines {
		limit = bybitMaxKlines
	}
	series, err := p.fetchTicker(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Close, 0, len(series))
	for date, price := range series {
		out = append(out, Close{Date: date, Price: price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (p *BybitProvider) fetchTicker(ctx context.Context, symbol string, limit int) (closes, error) {
	params := map[string]interface{}{
		"category": p.category,
		"symbol":   symbol,
		"interval": "D",
		"limit":    limit,
	}
	response, err := p.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
	if err != nil {
		return nil, fmt.Errorf("kline request: %w", err)
	}
	return parseKlines(response)
}

// parseKlines unpacks the generic kline payload. Each list entry is
// [startTimeMs, open, high, low, close, volume, turnover], all strings,
// newest first; ordering is irrelevant here because rows land in a map.
func parseKlines(response interface{}) (closes, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", response)
	}
	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("bybit API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}
	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var klineResult struct {
		List [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("unmarshal klines: %w", err)
	}
	if len(klineResult.List) == 0 {
		return nil, ErrNoRows
	}

	out := make(closes, len(klineResult.List))
	for _, item := range klineResult.List {
		if len(item) < 5 {
			log.Warn().Int("fields", len(item)).Msg("short kline row, skipping")
			continue
		}
		ms, err := strconv.ParseInt(item[0], 10, 64)
		if err != nil {
			log.Warn().Str("value", item[0]).Msg("unparseable kline timestamp, skipping row")
			continue
		}
		price, err := strconv.ParseFloat(item[4], 64)
		if err != nil {
			log.Warn().Str("value", item[4]).Msg("unparseable kline close, skipping row")
			continue
		}
		if price <= 0 {
			continue
		}
		out[day(time.UnixMilli(ms))] = price
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}
