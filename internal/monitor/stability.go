package monitor

import (
	"math"

	"github.com/ducminhle1904/crypto-statarb-lab/internal/coint"
)

// Status grades how well a cointegrating relationship is holding up.
type Status string

const (
	StatusStable   Status = "STABLE"
	StatusUnstable Status = "UNSTABLE"
	StatusBroken   Status = "BROKEN"
)

// Assessment pairs a status with the evidence that produced it.
type Assessment struct {
	Status Status
	// MaxWeightDrift is the largest relative weight change between the
	// baseline and recent vectors; zero when the vectors are not
	// comparable.
	MaxWeightDrift float64
	Recent         coint.Result
}

// Classify compares a recent test result against the caller-held baseline.
// Rank loss means the equilibrium structure itself degraded and dominates
// the weight comparison; weight drift beyond the threshold flags the
// relationship as unstable but still present. The classifier is stateless;
// callers re-run it on their own cadence.
func Classify(baseline, recent coint.Result, weightChangeThreshold float64) (Status, float64) {
	comparable := len(recent.Weights) == len(baseline.Weights) && len(baseline.Weights) > 0
	var drift float64
	if comparable {
		drift = MaxWeightDrift(baseline.Weights, recent.Weights)
	}

	if recent.Rank == 0 || recent.Rank < baseline.Rank || !comparable {
		return StatusBroken, drift
	}
	if drift > weightChangeThreshold {
		return StatusUnstable, drift
	}
	return StatusStable, drift
}

// MaxWeightDrift returns max_i |recent[i]-baseline[i]| / |baseline[i]| over
// entries with nonzero baseline weight.
func MaxWeightDrift(baseline, recent []float64) float64 {
	var worst float64
	for i := range baseline {
		if baseline[i] == 0 {
			continue
		}
		change := math.Abs(recent[i]-baseline[i]) / math.Abs(baseline[i])
		if change > worst {
			worst = change
		}
	}
	return worst
}

// Assess runs the classifier and bundles the evidence for reporting.
func Assess(baseline, recent coint.Result, weightChangeThreshold float64) Assessment {
	status, drift := Classify(baseline, recent, weightChangeThreshold)
	return Assessment{Status: status, MaxWeightDrift: drift, Recent: recent}
}
