package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosurv/app"
	"gosurv/domain/core"
	"gosurv/domain/survival"
	"gosurv/internal/config"
)

type memoryStore struct {
	curves map[core.CurveID]*survival.SurvivalCurve
}

func newMemoryStore() *memoryStore {
	return &memoryStore{curves: make(map[core.CurveID]*survival.SurvivalCurve)}
}

func (m *memoryStore) Save(ctx context.Context, curve *survival.SurvivalCurve) error {
	m.curves[curve.ID] = curve
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id core.CurveID) (*survival.SurvivalCurve, error) {
	curve, ok := m.curves[id]
	if !ok {
		return nil, core.NewCurveNotFoundError(id.String())
	}
	return curve, nil
}

func (m *memoryStore) ListByCohort(ctx context.Context, cohort string, limit int) ([]*survival.SurvivalCurve, error) {
	var out []*survival.SurvivalCurve
	for _, c := range m.curves {
		if c.Cohort == cohort {
			out = append(out, c)
		}
	}
	return out, nil
}

func testServer(store CurveStore) *Server {
	return NewServer(config.AnalysisConfig{
		ConfidenceLevel: 0.95,
		Tolerance:       1e-6,
		MaxIterations:   100,
	}, store, nil)
}

func postAnalyze(t *testing.T, server *Server, body analyzeRequest) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyze(t *testing.T) {
	server := testServer(nil)

	rec := postAnalyze(t, server, analyzeRequest{
		Cohort: "kidney",
		Observations: []survival.Observation{
			{Subject: "a", Time: 1, Event: true},
			{Subject: "a", Time: 3, Event: true},
			{Subject: "b", Time: 2, Event: true},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result app.CohortResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "kidney", result.Curve.Cohort)
	assert.NotEmpty(t, result.Curve.Points)
	assert.True(t, result.Curve.Monotone())
}

func TestHandleAnalyze_InvalidInput(t *testing.T) {
	server := testServer(nil)

	rec := postAnalyze(t, server, analyzeRequest{
		Cohort: "bad",
		Observations: []survival.Observation{
			{Subject: "", Time: 1},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_INPUT", body.Code)
}

func TestHandleAnalyze_EmptyObservations(t *testing.T) {
	server := testServer(nil)

	rec := postAnalyze(t, server, analyzeRequest{Cohort: "empty"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnalyze_PersistWithoutStore(t *testing.T) {
	server := testServer(nil)

	rec := postAnalyze(t, server, analyzeRequest{
		Cohort:  "kidney",
		Persist: true,
		Observations: []survival.Observation{
			{Subject: "a", Time: 1, Event: true},
		},
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleAnalyze_PersistAndFetch(t *testing.T) {
	store := newMemoryStore()
	server := testServer(store)

	rec := postAnalyze(t, server, analyzeRequest{
		Cohort:  "kidney",
		Persist: true,
		Observations: []survival.Observation{
			{Subject: "a", Time: 1, Event: true},
			{Subject: "a", Time: 3, Event: true},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result app.CohortResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/curves/"+result.Curve.ID.String(), nil)
	fetch := httptest.NewRecorder()
	server.Handler().ServeHTTP(fetch, req)
	require.Equal(t, http.StatusOK, fetch.Code)

	var curve survival.SurvivalCurve
	require.NoError(t, json.Unmarshal(fetch.Body.Bytes(), &curve))
	assert.Equal(t, result.Curve.ID, curve.ID)
	assert.Equal(t, result.Curve.Fingerprint, curve.Fingerprint)
}

func TestHandleGetCurve_NotFound(t *testing.T) {
	server := testServer(newMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/curves/"+core.NewID().String(), nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestHandleHealth(t *testing.T) {
	server := testServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
