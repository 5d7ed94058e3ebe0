package gaptime

import (
	"math"
	"testing"

	"gosurv/domain/core"
	"gosurv/domain/survival"
)

// TestBuilder_RecurrentSubject verifies gap derivation for a subject observed
// at 0, 2 and 5: the observation at the start reference anchors the clock and
// the remaining observations yield gaps 2 and 3.
func TestBuilder_RecurrentSubject(t *testing.T) {
	builder := NewBuilder(DefaultBuilderConfig())

	records, err := builder.Build([]survival.Observation{
		{Subject: "A", Time: 0, Event: true},
		{Subject: "A", Time: 2, Event: true},
		{Subject: "A", Time: 5, Event: true},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 gap records, got %d", len(records))
	}
	if records[0].Gap != 2 || !records[0].Event {
		t.Errorf("Expected first record gap=2 event=true, got gap=%g event=%v", records[0].Gap, records[0].Event)
	}
	if records[1].Gap != 3 || records[1].Event {
		t.Errorf("Expected last record gap=3 censored, got gap=%g event=%v", records[1].Gap, records[1].Event)
	}
}

// TestBuilder_SingleObservation verifies a lone observation yields exactly one
// censored record with the gap measured from the start reference.
func TestBuilder_SingleObservation(t *testing.T) {
	builder := NewBuilder(DefaultBuilderConfig())

	records, err := builder.Build([]survival.Observation{
		{Subject: "B", Time: 4, Event: true},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 gap record, got %d", len(records))
	}
	if records[0].Gap != 4 {
		t.Errorf("Expected gap=4, got %g", records[0].Gap)
	}
	if records[0].Event {
		t.Error("Single observation must be censored")
	}
}

// TestBuilder_TerminalCensoringForced verifies the last record per subject is
// censored regardless of the input event flag, and that the rule is
// idempotent when the builder output's flags are fed back in.
func TestBuilder_TerminalCensoringForced(t *testing.T) {
	builder := NewBuilder(DefaultBuilderConfig())

	observations := []survival.Observation{
		{Subject: "A", Time: 1, Event: true},
		{Subject: "A", Time: 3, Event: true}, // input says event; must be overridden
		{Subject: "B", Time: 2, Event: true},
	}

	records, err := builder.Build(observations)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	lastBySubject := make(map[core.SubjectID]survival.GapRecord)
	for _, rec := range records {
		lastBySubject[rec.Subject] = rec
	}
	for subject, rec := range lastBySubject {
		if rec.Event {
			t.Errorf("Last record of subject %s must be censored", subject)
		}
	}

	// Idempotence: reapply the builder's own censoring decisions as input.
	for i := range observations {
		if i == 1 || i == 2 {
			observations[i].Event = false
		}
	}
	again, err := builder.Build(observations)
	if err != nil {
		t.Fatalf("Build failed on second pass: %v", err)
	}
	for i := range records {
		if records[i].Event != again[i].Event || records[i].Gap != again[i].Gap {
			t.Errorf("Record %d changed on reapplication: %+v vs %+v", i, records[i], again[i])
		}
	}
}

// TestBuilder_UnsortedInput verifies observations are sorted within subject
// before gaps are derived.
func TestBuilder_UnsortedInput(t *testing.T) {
	builder := NewBuilder(DefaultBuilderConfig())

	records, err := builder.Build([]survival.Observation{
		{Subject: "A", Time: 5, Event: true},
		{Subject: "A", Time: 2, Event: true},
		{Subject: "A", Time: 0, Event: true},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(records) != 2 || records[0].Gap != 2 || records[1].Gap != 3 {
		t.Errorf("Expected gaps [2 3] after sorting, got %+v", records)
	}
}

// TestBuilder_DuplicateTimestamps verifies duplicate times yield valid zero
// gaps instead of an error.
func TestBuilder_DuplicateTimestamps(t *testing.T) {
	builder := NewBuilder(DefaultBuilderConfig())

	records, err := builder.Build([]survival.Observation{
		{Subject: "A", Time: 2, Event: true},
		{Subject: "A", Time: 2, Event: true},
		{Subject: "A", Time: 6, Event: true},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 gap records, got %d", len(records))
	}
	if records[0].Gap != 2 || records[1].Gap != 0 || records[2].Gap != 4 {
		t.Errorf("Expected gaps [2 0 4], got [%g %g %g]", records[0].Gap, records[1].Gap, records[2].Gap)
	}
}

// TestBuilder_RunningTotals verifies cumulative covariates accumulate in time
// order per subject.
func TestBuilder_RunningTotals(t *testing.T) {
	cfg := DefaultBuilderConfig()
	cfg.Totals = true
	builder := NewBuilder(cfg)

	records, err := builder.Build([]survival.Observation{
		{Subject: "A", Time: 0, Event: true, Count: 1, Amount: 10},
		{Subject: "A", Time: 2, Event: true, Count: 2, Amount: 5},
		{Subject: "A", Time: 5, Event: true, Count: 1, Amount: 20},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 gap records, got %d", len(records))
	}
	if records[0].CumCount != 3 || records[0].CumAmount != 15 {
		t.Errorf("Expected first totals count=3 amount=15, got count=%g amount=%g", records[0].CumCount, records[0].CumAmount)
	}
	if records[1].CumCount != 4 || records[1].CumAmount != 35 {
		t.Errorf("Expected last totals count=4 amount=35, got count=%g amount=%g", records[1].CumCount, records[1].CumAmount)
	}
}

// TestBuilder_StartOffset verifies the first gap is measured from the
// configured offset.
func TestBuilder_StartOffset(t *testing.T) {
	cfg := DefaultBuilderConfig()
	cfg.StartOffset = 3
	builder := NewBuilder(cfg)

	records, err := builder.Build([]survival.Observation{
		{Subject: "A", Time: 7, Event: true},
		{Subject: "A", Time: 9, Event: true},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if records[0].Gap != 4 {
		t.Errorf("Expected first gap measured from offset (4), got %g", records[0].Gap)
	}
}

// TestBuilder_ObservationBeforeStartOffset verifies observations earlier than
// the configured offset are rejected instead of producing negative gaps.
func TestBuilder_ObservationBeforeStartOffset(t *testing.T) {
	cfg := DefaultBuilderConfig()
	cfg.StartOffset = 3
	builder := NewBuilder(cfg)

	records, err := builder.Build([]survival.Observation{
		{Subject: "A", Time: 1, Event: true},
		{Subject: "A", Time: 5, Event: true},
	})
	if err == nil {
		t.Fatalf("Expected an error for an observation before the offset, got records %+v", records)
	}
	if !core.IsInvalidInputError(err) {
		t.Errorf("Expected invalid-input error, got %v", err)
	}
	if records != nil {
		t.Errorf("No records must be emitted on rejection, got %+v", records)
	}
}

// TestBuilder_InvalidInput verifies malformed observations are rejected with
// invalid-input errors.
func TestBuilder_InvalidInput(t *testing.T) {
	builder := NewBuilder(DefaultBuilderConfig())

	cases := []struct {
		name string
		obs  survival.Observation
	}{
		{"missing subject", survival.Observation{Subject: "", Time: 1}},
		{"NaN time", survival.Observation{Subject: "A", Time: math.NaN()}},
		{"negative time", survival.Observation{Subject: "A", Time: -1}},
		{"infinite time", survival.Observation{Subject: "A", Time: math.Inf(1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := builder.Build([]survival.Observation{tc.obs})
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !core.IsInvalidInputError(err) {
				t.Errorf("Expected invalid-input error, got %v", err)
			}
		})
	}
}
