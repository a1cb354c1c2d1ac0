package backtest

import (
	"runtime"
	"sort"
	"sync"

	"github.com/ducminhle1904/crypto-statarb-lab/pkg/types"
)

// evaluateFolds runs every fold and returns the outcomes in fold-index
// order. Folds only read their own slices of the shared read-only table, so
// they can be fanned out across workers; the sort afterwards makes the
// parallel path produce byte-identical reports to the sequential one.
func (e *WalkForwardEngine) evaluateFolds(table *types.PriceTable, spans []span) []foldOutcome {
	if !e.cfg.ParallelFolds || len(spans) < 2 {
		outcomes := make([]foldOutcome, len(spans))
		for i, sp := range spans {
			outcomes[i] = e.evaluateFold(table, sp)
		}
		return outcomes
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(spans) {
		workers = len(spans)
	}

	jobs := make(chan span, len(spans))
	results := make(chan foldOutcome, len(spans))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sp := range jobs {
				results <- e.evaluateFold(table, sp)
			}
		}()
	}

	for _, sp := range spans {
		jobs <- sp
	}
	close(jobs)
	wg.Wait()
	close(results)

	outcomes := make([]foldOutcome, 0, len(spans))
	for fo := range results {
		outcomes = append(outcomes, fo)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].fold.Index < outcomes[j].fold.Index })
	return outcomes
}
