package km

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ConfidenceBounds computes pointwise bounds for a survival estimate on the
// log(-log S) scale, which keeps the interval inside [0,1] and stays stable
// near the extremes. Degenerate inputs produce defined values, never a panic:
// S==1 reports [1,1], S==0 reports [0,0], and a NaN standard error propagates
// NaN bounds.
func ConfidenceBounds(surv, stdErr, level float64) (lower, upper float64) {
	switch {
	case surv >= 1:
		return 1, 1
	case surv <= 0:
		return 0, 0
	case math.IsNaN(surv) || math.IsNaN(stdErr):
		return math.NaN(), math.NaN()
	}

	z := distuv.UnitNormal.Quantile(1 - (1-level)/2)

	logS := math.Log(surv)
	theta := math.Log(-logS)
	sigma := stdErr / (surv * math.Abs(logS))

	// Larger theta corresponds to lower survival, so +z yields the lower bound.
	lower = math.Exp(-math.Exp(theta + z*sigma))
	upper = math.Exp(-math.Exp(theta - z*sigma))
	return lower, upper
}
