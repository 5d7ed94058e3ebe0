package summary

import (
	"github.com/montanaflynn/stats"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

// Summarize computes descriptive statistics of the pooled gap times for a
// cohort of gap records. The output feeds the report narrative; it is not an
// input to estimation.
func Summarize(cohort string, records []survival.GapRecord) (survival.CohortSummary, error) {
	if len(records) == 0 {
		return survival.CohortSummary{}, core.ErrInsufficientData
	}

	gaps := make([]float64, 0, len(records))
	subjects := make(map[core.SubjectID]bool)
	events := 0
	for _, rec := range records {
		gaps = append(gaps, rec.Gap)
		subjects[rec.Subject] = true
		if rec.Event {
			events++
		}
	}

	mean, err := stats.Mean(gaps)
	if err != nil {
		return survival.CohortSummary{}, err
	}
	median, err := stats.Median(gaps)
	if err != nil {
		return survival.CohortSummary{}, err
	}
	max, err := stats.Max(gaps)
	if err != nil {
		return survival.CohortSummary{}, err
	}

	summary := survival.CohortSummary{
		Cohort:    cohort,
		Subjects:  len(subjects),
		Records:   len(records),
		Events:    events,
		Censored:  len(records) - events,
		MeanGap:   mean,
		MedianGap: median,
		MaxGap:    max,
	}

	// Quartiles need at least a handful of points to be meaningful.
	if quartiles, err := stats.Quartile(gaps); err == nil {
		summary.Q1Gap = quartiles.Q1
		summary.Q3Gap = quartiles.Q3
	}

	return summary, nil
}
