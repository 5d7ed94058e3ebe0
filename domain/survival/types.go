package survival

import (
	"encoding/json"
	"math"

	"gosurv/domain/core"
)

// Observation is a single timestamped record for a subject. Time is either a
// duration from a study reference or a numeric calendar time; the builder only
// requires it to be finite and non-negative. Event marks whether the event of
// interest was observed at this time (false = censored).
type Observation struct {
	Subject core.SubjectID `json:"subject"`
	Time    float64        `json:"time"`
	Event   bool           `json:"event"`
	Count   float64        `json:"count,omitempty"`
	Amount  float64        `json:"amount,omitempty"`
}

// Valid reports whether the observation can participate in a gap-time analysis.
func (o Observation) Valid() bool {
	return o.Subject != "" && !math.IsNaN(o.Time) && !math.IsInf(o.Time, 0) && o.Time >= 0
}

// GapRecord is the inter-event duration derived from two consecutive
// observations of the same subject. Event is false for censored gaps; the last
// gap of every subject is always censored because the subject's forward gap
// beyond the observation window is unknown.
type GapRecord struct {
	Subject   core.SubjectID `json:"subject"`
	Gap       float64        `json:"gap"`
	Event     bool           `json:"event"`
	CumCount  float64        `json:"cum_count,omitempty"`
	CumAmount float64        `json:"cum_amount,omitempty"`
}

// SurvivalPoint is one step of the estimated survival function.
// Survival is non-increasing in Time and lies in [0,1]. StdErr, Lower and
// Upper may be NaN where the variance is undefined (risk set exhausted).
type SurvivalPoint struct {
	Time     float64 `json:"time"`
	NRisk    float64 `json:"n_risk"`
	NEvent   float64 `json:"n_event"`
	Survival float64 `json:"survival"`
	StdErr   float64 `json:"std_err"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// survivalPointJSON mirrors SurvivalPoint with nullable error fields, since
// encoding/json rejects NaN. Undefined variance travels as null.
type survivalPointJSON struct {
	Time     float64  `json:"time"`
	NRisk    float64  `json:"n_risk"`
	NEvent   float64  `json:"n_event"`
	Survival float64  `json:"survival"`
	StdErr   *float64 `json:"std_err"`
	Lower    *float64 `json:"lower"`
	Upper    *float64 `json:"upper"`
}

// MarshalJSON encodes NaN error fields as null.
func (p SurvivalPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(survivalPointJSON{
		Time:     p.Time,
		NRisk:    p.NRisk,
		NEvent:   p.NEvent,
		Survival: p.Survival,
		StdErr:   nanToNull(p.StdErr),
		Lower:    nanToNull(p.Lower),
		Upper:    nanToNull(p.Upper),
	})
}

// UnmarshalJSON decodes null error fields back to NaN.
func (p *SurvivalPoint) UnmarshalJSON(data []byte) error {
	var raw survivalPointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Time = raw.Time
	p.NRisk = raw.NRisk
	p.NEvent = raw.NEvent
	p.Survival = raw.Survival
	p.StdErr = nullToNaN(raw.StdErr)
	p.Lower = nullToNaN(raw.Lower)
	p.Upper = nullToNaN(raw.Upper)
	return nil
}

func nanToNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nullToNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// SurvivalCurve is the persisted output of one estimation run.
type SurvivalCurve struct {
	ID          core.CurveID    `json:"id"`
	Cohort      string          `json:"cohort"`
	Points      []SurvivalPoint `json:"points"`
	Weighting   string          `json:"weighting"`
	Alpha       float64         `json:"alpha"`
	Iterations  int             `json:"iterations"`
	Confidence  float64         `json:"confidence"`
	Fingerprint core.Hash       `json:"fingerprint"`
	CreatedAt   core.Timestamp  `json:"created_at"`
}

// MedianTime returns the smallest event time at which the survival estimate
// drops to 0.5 or below, and false when the curve never reaches it.
func (c *SurvivalCurve) MedianTime() (float64, bool) {
	for _, p := range c.Points {
		if p.Survival <= 0.5 {
			return p.Time, true
		}
	}
	return 0, false
}

// Monotone reports whether the survival estimates are non-increasing and
// bounded in [0,1]. Estimator output must always satisfy this.
func (c *SurvivalCurve) Monotone() bool {
	prev := 1.0
	for _, p := range c.Points {
		if p.Survival < 0 || p.Survival > 1 || p.Survival > prev {
			return false
		}
		prev = p.Survival
	}
	return true
}

// CohortSummary holds descriptive statistics of the pooled gap times.
type CohortSummary struct {
	Cohort    string  `json:"cohort"`
	Subjects  int     `json:"subjects"`
	Records   int     `json:"records"`
	Events    int     `json:"events"`
	Censored  int     `json:"censored"`
	MeanGap   float64 `json:"mean_gap"`
	MedianGap float64 `json:"median_gap"`
	Q1Gap     float64 `json:"q1_gap"`
	Q3Gap     float64 `json:"q3_gap"`
	MaxGap    float64 `json:"max_gap"`
}
