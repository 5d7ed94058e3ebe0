package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"gosurv/adapters/stats/gaptime"
	"gosurv/adapters/stats/km"
	"gosurv/adapters/stats/summary"
	"gosurv/domain/core"
	"gosurv/domain/survival"
	"gosurv/internal"
	"gosurv/internal/config"
)

// WeightingNone and WeightingGammaFrailty name the available recurrence
// adjustments.
const (
	WeightingNone         = "none"
	WeightingGammaFrailty = "gamma_frailty"
)

// CohortRequest is one named cohort of raw observations to analyze.
type CohortRequest struct {
	Name         string                 `json:"name"`
	Observations []survival.Observation `json:"observations"`
}

// CohortResult pairs the estimated curve with the cohort's descriptive stats.
type CohortResult struct {
	Curve   *survival.SurvivalCurve `json:"curve"`
	Summary survival.CohortSummary  `json:"summary"`
}

// AnalysisService orchestrates one full gap-time analysis: derive gap records,
// summarize the cohort, estimate the survival curve, and assemble the output
// artifact.
type AnalysisService struct {
	builder    *gaptime.Builder
	estimator  *km.Estimator
	confidence float64
	logger     *internal.Logger
}

// NewAnalysisService wires the pipeline from analysis configuration.
// weighting selects the recurrence adjustment; WeightingNone pools records
// unweighted.
func NewAnalysisService(cfg config.AnalysisConfig, weighting string, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	builderCfg := gaptime.DefaultBuilderConfig()
	builderCfg.StartOffset = cfg.StartOffset
	builderCfg.Totals = true

	estimatorCfg := km.EstimatorConfig{
		ConfidenceLevel: cfg.ConfidenceLevel,
		Tolerance:       cfg.Tolerance,
		MaxIterations:   cfg.MaxIterations,
	}

	var estimator *km.Estimator
	if weighting == WeightingGammaFrailty {
		estimator = km.NewWeightedEstimator(estimatorCfg, km.NewFrailtyWeighter())
	} else {
		estimator = km.NewEstimator(estimatorCfg)
	}

	return &AnalysisService{
		builder:    gaptime.NewBuilder(builderCfg),
		estimator:  estimator,
		confidence: cfg.ConfidenceLevel,
		logger:     logger,
	}
}

// Analyze runs the pipeline for a single cohort.
func (s *AnalysisService) Analyze(ctx context.Context, req CohortRequest) (*CohortResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := s.builder.Build(req.Observations)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("cohort %s: %d observations -> %d gap records", req.Name, len(req.Observations), len(records))

	cohortSummary, err := summary.Summarize(req.Name, records)
	if err != nil {
		return nil, err
	}

	result, err := s.estimator.Estimate(records)
	if err != nil {
		return nil, err
	}

	curve := s.assembleCurve(req.Name, result)
	s.logger.Info("cohort %s: estimated %d survival points (%s, %d iterations)",
		req.Name, len(curve.Points), curve.Weighting, curve.Iterations)

	return &CohortResult{Curve: curve, Summary: cohortSummary}, nil
}

// AnalyzeCohorts runs the pipeline for several cohorts concurrently. Results
// keep the request order. The first failing cohort cancels the rest.
func (s *AnalysisService) AnalyzeCohorts(ctx context.Context, requests []CohortRequest) ([]*CohortResult, error) {
	results := make([]*CohortResult, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			result, err := s.Analyze(ctx, req)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *AnalysisService) assembleCurve(cohort string, result *km.Result) *survival.SurvivalCurve {
	times := make([]float64, len(result.Points))
	probs := make([]float64, len(result.Points))
	for i, p := range result.Points {
		times[i] = p.Time
		probs[i] = p.Survival
	}

	return &survival.SurvivalCurve{
		ID:          core.CurveID(core.NewID()),
		Cohort:      cohort,
		Points:      result.Points,
		Weighting:   result.Weighting,
		Alpha:       result.Alpha,
		Iterations:  result.Iterations,
		Confidence:  s.confidence,
		Fingerprint: core.ComputeCurveFingerprint(cohort, times, probs),
		CreatedAt:   core.Now(),
	}
}
