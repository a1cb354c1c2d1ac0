package backtest

// span is one walk-forward fold's row ranges: train [TrainStart, TrainEnd),
// test [TrainEnd, TestEnd).
type span struct {
	Index      int
	TrainStart int
	TrainEnd   int
	TestEnd    int
}

// foldSpans enumerates walk-forward folds. Fold k trains on
// [k*step, k*step+train) and tests on the test rows that follow; folds are
// generated while the test range still fits inside the data, which yields
// floor((length-train-test)/step)+1 of them when length >= train+test.
func foldSpans(dataLength, trainWindow, testWindow, stepSize int) []span {
	if trainWindow <= 0 || testWindow <= 0 || stepSize <= 0 {
		return nil
	}
	var spans []span
	for k := 0; ; k++ {
		trainStart := k * stepSize
		trainEnd := trainStart + trainWindow
		testEnd := trainEnd + testWindow
		if testEnd > dataLength {
			return spans
		}
		spans = append(spans, span{
			Index:      k,
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestEnd:    testEnd,
		})
	}
}
