package gaptime

import (
	"fmt"
	"math"
	"sort"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

// BuilderConfig configures gap derivation.
type BuilderConfig struct {
	// StartOffset is the reference time the first gap of each subject is
	// measured from. A subject's first observation at exactly this time is
	// treated as the entry marker and produces no gap record, unless it is
	// the subject's only observation.
	StartOffset float64 `json:"start_offset"`
	// Totals enables running cumulative Count/Amount sums per subject.
	Totals bool `json:"totals"`
}

// DefaultBuilderConfig returns the standard configuration: gaps measured from
// time zero, no covariate totals.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{StartOffset: 0, Totals: false}
}

// Builder transforms per-subject timestamped observations into pooled gap
// records suitable for Kaplan-Meier estimation. Observations do not need to be
// pre-sorted; they are grouped by subject and ordered by time ascending.
type Builder struct {
	config BuilderConfig
}

// NewBuilder creates a builder with the given configuration.
func NewBuilder(config BuilderConfig) *Builder {
	return &Builder{config: config}
}

// Build derives gap records from the observations. The last record of every
// subject is marked censored regardless of its input event flag. Returns an
// error satisfying core.IsInvalidInputError for malformed input, including
// observations earlier than the configured start offset: a gap is a duration
// and must never come out negative.
func (b *Builder) Build(observations []survival.Observation) ([]survival.GapRecord, error) {
	if err := b.validate(observations); err != nil {
		return nil, err
	}

	grouped, order := b.group(observations)

	var records []survival.GapRecord
	for _, subject := range order {
		records = append(records, b.buildSubject(subject, grouped[subject])...)
	}
	return records, nil
}

func (b *Builder) validate(observations []survival.Observation) error {
	for i, obs := range observations {
		if obs.Subject == "" {
			return fmt.Errorf("observation %d: %w", i, core.ErrMissingSubject)
		}
		if math.IsNaN(obs.Time) || math.IsInf(obs.Time, 0) {
			return fmt.Errorf("observation %d (subject %s): %w", i, obs.Subject, core.ErrNonNumericTime)
		}
		if obs.Time < 0 {
			return fmt.Errorf("observation %d (subject %s): %w: %g", i, obs.Subject, core.ErrNegativeTime, obs.Time)
		}
		if obs.Time < b.config.StartOffset {
			return fmt.Errorf("observation %d (subject %s): %w: time %g precedes start offset %g",
				i, obs.Subject, core.ErrNegativeTime, obs.Time, b.config.StartOffset)
		}
	}
	return nil
}

// group partitions observations by subject, preserving first-appearance order
// of subjects so output is deterministic for a given input ordering.
func (b *Builder) group(observations []survival.Observation) (map[core.SubjectID][]survival.Observation, []core.SubjectID) {
	grouped := make(map[core.SubjectID][]survival.Observation)
	var order []core.SubjectID

	for _, obs := range observations {
		if _, seen := grouped[obs.Subject]; !seen {
			order = append(order, obs.Subject)
		}
		grouped[obs.Subject] = append(grouped[obs.Subject], obs)
	}

	for _, group := range grouped {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Time < group[j].Time
		})
	}
	return grouped, order
}

// buildSubject derives the gap records for one subject's time-ordered
// observations. Duplicate timestamps yield valid zero gaps.
func (b *Builder) buildSubject(subject core.SubjectID, group []survival.Observation) []survival.GapRecord {
	prev := b.config.StartOffset
	start := 0

	// An observation at exactly the start offset anchors the subject clock
	// instead of producing a zero gap, as long as later observations exist.
	if len(group) > 1 && group[0].Time == b.config.StartOffset {
		start = 1
	}

	var cumCount, cumAmount float64
	if start == 1 && b.config.Totals {
		cumCount = group[0].Count
		cumAmount = group[0].Amount
	}

	records := make([]survival.GapRecord, 0, len(group)-start)
	for _, obs := range group[start:] {
		rec := survival.GapRecord{
			Subject: subject,
			Gap:     obs.Time - prev,
			Event:   obs.Event,
		}
		if b.config.Totals {
			cumCount += obs.Count
			cumAmount += obs.Amount
			rec.CumCount = cumCount
			rec.CumAmount = cumAmount
		}
		records = append(records, rec)
		prev = obs.Time
	}

	// The subject's forward gap beyond the window is unobserved.
	if len(records) > 0 {
		records[len(records)-1].Event = false
	}
	return records
}
