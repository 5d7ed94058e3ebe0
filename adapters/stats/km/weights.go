package km

import (
	"math"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

// Weighter adjusts per-record contributions between estimation rounds to
// account for within-subject correlation of recurrent gap times. Reweight
// receives the curve from the current round and the current weighting
// parameter, and returns one weight per record plus the updated parameter.
// The estimator iterates until the parameter stabilizes.
type Weighter interface {
	Name() string
	Reweight(records []survival.GapRecord, points []survival.SurvivalPoint, alpha float64) ([]float64, float64)
}

// FrailtyWeighter shrinks the contribution of subjects whose event counts
// deviate from what the current curve predicts, using a gamma-frailty moment
// estimate of the between-subject dispersion (the alpha parameter).
//
// Per subject s, the expected event count under the current curve is
// E_s = sum of the cumulative hazard -log S(gap) over the subject's gaps, and
// O_s is the observed event count. alpha is re-estimated as
// max(0, (sum (O_s-E_s)^2 - sum E_s) / sum E_s^2); record weights are the
// empirical-Bayes frailty estimates (1/alpha + O_s) / (1/alpha + E_s),
// normalized to mean one so risk-set sizes stay comparable across rounds.
type FrailtyWeighter struct{}

// NewFrailtyWeighter creates the gamma-frailty recurrence adjustment.
func NewFrailtyWeighter() *FrailtyWeighter {
	return &FrailtyWeighter{}
}

// Name returns the weighting strategy identifier.
func (w *FrailtyWeighter) Name() string {
	return "gamma_frailty"
}

// Reweight computes per-record frailty weights and the updated alpha.
func (w *FrailtyWeighter) Reweight(records []survival.GapRecord, points []survival.SurvivalPoint, alpha float64) ([]float64, float64) {
	observed := make(map[core.SubjectID]float64)
	expected := make(map[core.SubjectID]float64)
	for _, rec := range records {
		if rec.Event {
			observed[rec.Subject]++
		}
		expected[rec.Subject] += cumulativeHazard(points, rec.Gap)
	}

	var sumE, sumE2, sumSq float64
	for subject, e := range expected {
		diff := observed[subject] - e
		sumSq += diff * diff
		sumE += e
		sumE2 += e * e
	}

	newAlpha := 0.0
	if sumE2 > 0 {
		newAlpha = (sumSq - sumE) / sumE2
		if newAlpha < 0 || math.IsNaN(newAlpha) {
			newAlpha = 0
		}
	}

	weights := make([]float64, len(records))
	if newAlpha == 0 {
		for i := range weights {
			weights[i] = 1
		}
		return weights, 0
	}

	frailty := make(map[core.SubjectID]float64, len(expected))
	var total float64
	for i, rec := range records {
		f, ok := frailty[rec.Subject]
		if !ok {
			inv := 1 / newAlpha
			f = (inv + observed[rec.Subject]) / (inv + expected[rec.Subject])
			frailty[rec.Subject] = f
		}
		weights[i] = f
		total += f
	}

	// Normalize to mean one.
	mean := total / float64(len(records))
	for i := range weights {
		weights[i] /= mean
	}
	return weights, newAlpha
}

// cumulativeHazard evaluates -log S at the given gap from the step curve.
// Gaps before the first event time carry zero hazard; a zero survival step
// contributes the hazard of the last positive step to keep E_s finite.
func cumulativeHazard(points []survival.SurvivalPoint, gap float64) float64 {
	hazard := 0.0
	for _, p := range points {
		if p.Time > gap {
			break
		}
		if p.Survival > 0 {
			hazard = -math.Log(p.Survival)
		}
	}
	return hazard
}
