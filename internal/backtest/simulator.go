package backtest

import (
	"math"
	"time"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/signal"
)

// simParams bundles the thresholds and sizing knobs for one simulation pass.
type simParams struct {
	entry            float64
	exit             float64
	stop             float64
	timeStopMultiple float64
	// halfLife is the estimated mean-reversion half-life in bars. The time
	// stop is skipped when it is non-positive, NaN or infinite.
	halfLife   float64
	riskBudget float64
	// cost is the round-trip transaction cost rate, charged once per trade
	// against the position size.
	cost      float64
	volWindow int
	// brokenAt optionally reports that the cointegrating relationship is
	// assessed broken at a row index. It forces any open position closed
	// and takes priority over every other exit rule.
	brokenAt func(i int) bool
}

// simOutcome is one pass of the state machine: closed trades in entry order
// plus the cumulative strategy PnL per bar of the trading range, including
// mark-to-market of any open position.
type simOutcome struct {
	trades []Trade
	pnl    []float64
}

const (
	stateFlat = iota
	stateLong
	stateShort
)

// simulate runs the trade state machine over bars [start, end) of the
// series. dates, spread and zscore index the full table so the z-score warm
// start and the sizing volatility can reach back before the trading range.
//
// Entries need two consecutive bars beyond the entry threshold, which
// filters single-day whipsaws. Exits are checked before entries on each
// bar, and a bar that closes a position never reopens one. A NaN z-score
// neither enters nor exits; it only resets the confirmation streak. At most
// one position is open at a time, and anything still open on the final bar
// is closed as END_OF_DATA.
func simulate(dates []time.Time, spread, zscore []float64, start, end int, p simParams) simOutcome {
	out := simOutcome{pnl: make([]float64, end-start)}
	timeStop := p.timeStopMultiple > 0 && p.halfLife > 0 && !math.IsInf(p.halfLife, 1) && !math.IsNaN(p.halfLife)

	state := stateFlat
	var (
		entryIdx    int
		entrySpread float64
		entryZ      float64
		size        float64
		dir         float64
		realized    float64
		longStreak  int
		shortStreak int
	)

	closePosition := func(i int, reason ExitReason) {
		pnl := dir*(spread[i]-entrySpread)*size - p.cost*size
		direction := DirectionLongSpread
		if dir < 0 {
			direction = DirectionShortSpread
		}
		out.trades = append(out.trades, Trade{
			EntryDate:   dates[entryIdx],
			ExitDate:    dates[i],
			Direction:   direction,
			EntryZScore: entryZ,
			ExitZScore:  zscore[i],
			Size:        size,
			PnL:         pnl,
			ExitReason:  reason,
			HoldingDays: i - entryIdx,
		})
		realized += pnl
		state = stateFlat
		longStreak, shortStreak = 0, 0
	}

	for i := start; i < end; i++ {
		z := zscore[i]
		closed := false

		if state != stateFlat {
			switch {
			case p.brokenAt != nil && p.brokenAt(i):
				closePosition(i, ExitRelationshipBroken)
				closed = true
			case !math.IsNaN(z) && math.Abs(z) <= p.exit:
				closePosition(i, ExitReversion)
				closed = true
			case !math.IsNaN(z) && math.Abs(z) >= p.stop:
				closePosition(i, ExitStopLoss)
				closed = true
			case timeStop && float64(i-entryIdx) > p.timeStopMultiple*p.halfLife:
				closePosition(i, ExitTimeStop)
				closed = true
			}
		}

		if state == stateFlat && !closed {
			switch {
			case math.IsNaN(z):
				longStreak, shortStreak = 0, 0
			case z > p.entry:
				shortStreak++
				longStreak = 0
			case z < -p.entry:
				longStreak++
				shortStreak = 0
			default:
				longStreak, shortStreak = 0, 0
			}
			if longStreak >= 2 || shortStreak >= 2 {
				// Size inversely to trailing spread volatility: noisier
				// spreads get smaller positions. No usable volatility means
				// no entry; the streak carries so a later bar can still
				// trigger.
				vol := signal.TrailingVol(spread, p.volWindow, i)
				if !math.IsNaN(vol) && vol > 0 {
					if shortStreak >= 2 {
						state = stateShort
						dir = -1
					} else {
						state = stateLong
						dir = 1
					}
					entryIdx = i
					entrySpread = spread[i]
					entryZ = z
					size = p.riskBudget / vol
				}
			}
		}

		mtm := 0.0
		if state != stateFlat {
			// The round-trip cost is recognized as soon as the position
			// opens, so marked and realized PnL agree at the exit bar.
			mtm = dir*(spread[i]-entrySpread)*size - p.cost*size
		}
		out.pnl[i-start] = realized + mtm
	}

	if state != stateFlat {
		closePosition(end-1, ExitEndOfData)
		out.pnl[end-start-1] = realized
	}

	return out
}
