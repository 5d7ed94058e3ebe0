package km

import (
	"math"
	"sort"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

// EstimatorConfig configures Kaplan-Meier estimation.
type EstimatorConfig struct {
	// ConfidenceLevel for the pointwise log-log bounds, in (0,1).
	ConfidenceLevel float64 `json:"confidence_level"`
	// Tolerance is the convergence threshold on the weighting parameter.
	Tolerance float64 `json:"tolerance"`
	// MaxIterations caps the weighting re-estimation loop.
	MaxIterations int `json:"max_iterations"`
}

// DefaultEstimatorConfig returns the standard configuration: 95% bounds,
// tolerance 1e-6, at most 100 weighting iterations.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		ConfidenceLevel: 0.95,
		Tolerance:       1e-6,
		MaxIterations:   100,
	}
}

// Result holds the estimated step function plus weighting diagnostics.
type Result struct {
	Points     []survival.SurvivalPoint `json:"points"`
	Weighting  string                   `json:"weighting"`
	Alpha      float64                  `json:"alpha"`
	Iterations int                      `json:"iterations"`
}

// Estimator computes a Kaplan-Meier survival function over pooled gap records.
// Gaps from the same subject are correlated; an optional Weighter re-weights
// each record's contribution through an iterative re-estimation loop. With a
// nil Weighter the estimator pools all records unweighted in a single pass.
type Estimator struct {
	config   EstimatorConfig
	weighter Weighter
}

// NewEstimator creates an unweighted estimator.
func NewEstimator(config EstimatorConfig) *Estimator {
	return &Estimator{config: config}
}

// NewWeightedEstimator creates an estimator with a recurrence adjustment.
func NewWeightedEstimator(config EstimatorConfig, weighter Weighter) *Estimator {
	return &Estimator{config: config, weighter: weighter}
}

// Estimate computes the survival step function. Returns an error satisfying
// core.IsConvergenceError when the weighting loop exhausts MaxIterations
// without the parameter stabilizing; the caller may fall back to unweighted
// estimation in that case.
func (e *Estimator) Estimate(records []survival.GapRecord) (*Result, error) {
	if len(records) == 0 {
		return nil, core.ErrInsufficientData
	}

	weights := unitWeights(len(records))

	if e.weighter == nil {
		points := e.estimateWeighted(records, weights)
		return &Result{Points: points, Weighting: "unweighted", Iterations: 1}, nil
	}

	alpha := 0.0
	delta := math.Inf(1)
	var points []survival.SurvivalPoint
	for iter := 1; iter <= e.config.MaxIterations; iter++ {
		points = e.estimateWeighted(records, weights)

		newWeights, newAlpha := e.weighter.Reweight(records, points, alpha)
		delta = math.Abs(newAlpha - alpha)
		weights, alpha = newWeights, newAlpha

		if delta < e.config.Tolerance {
			points = e.estimateWeighted(records, weights)
			return &Result{
				Points:     points,
				Weighting:  e.weighter.Name(),
				Alpha:      alpha,
				Iterations: iter,
			}, nil
		}
	}

	return nil, core.NewConvergenceError(e.config.MaxIterations, delta, e.config.Tolerance)
}

// estimateWeighted runs one weighted Kaplan-Meier pass.
func (e *Estimator) estimateWeighted(records []survival.GapRecord, weights []float64) []survival.SurvivalPoint {
	eventTimes := distinctEventTimes(records)

	points := make([]survival.SurvivalPoint, 0, len(eventTimes))
	surv := 1.0
	greenwood := 0.0

	for _, t := range eventTimes {
		var nRisk, nEvent float64
		for i, rec := range records {
			if rec.Gap >= t {
				nRisk += weights[i]
			}
			if rec.Event && rec.Gap == t {
				nEvent += weights[i]
			}
		}

		surv *= 1 - nEvent/nRisk
		if surv < 0 {
			surv = 0
		}

		// Greenwood's formula; undefined once the risk set is exhausted.
		if nRisk > nEvent {
			greenwood += nEvent / (nRisk * (nRisk - nEvent))
		} else {
			greenwood = math.NaN()
		}
		stdErr := surv * math.Sqrt(greenwood)

		lower, upper := ConfidenceBounds(surv, stdErr, e.config.ConfidenceLevel)
		points = append(points, survival.SurvivalPoint{
			Time:     t,
			NRisk:    nRisk,
			NEvent:   nEvent,
			Survival: surv,
			StdErr:   stdErr,
			Lower:    lower,
			Upper:    upper,
		})
	}
	return points
}

// distinctEventTimes returns the sorted distinct gap values at which at least
// one event occurred. Censored-only times do not create steps.
func distinctEventTimes(records []survival.GapRecord) []float64 {
	seen := make(map[float64]bool)
	var times []float64
	for _, rec := range records {
		if rec.Event && !seen[rec.Gap] {
			seen[rec.Gap] = true
			times = append(times, rec.Gap)
		}
	}
	sort.Float64s(times)
	return times
}

func unitWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}
