package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gosurv/app"
	"gosurv/domain/core"
	"gosurv/domain/survival"
	apperrors "gosurv/internal/errors"
)

// analyzeRequest is the POST /api/v1/analyze body.
type analyzeRequest struct {
	Cohort       string                 `json:"cohort"`
	Observations []survival.Observation `json:"observations"`
	Weighting    string                 `json:"weighting,omitempty"`
	Persist      bool                   `json:"persist,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func newErrorResponse(err error) errorResponse {
	return errorResponse{Error: err.Error(), Code: codeForError(err)}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Cohort == "" {
		req.Cohort = "default"
	}
	weighting := req.Weighting
	if weighting == "" {
		weighting = app.WeightingNone
	}

	service := app.NewAnalysisService(s.analysis, weighting, s.logger)
	result, err := service.Analyze(r.Context(), app.CohortRequest{
		Name:         req.Cohort,
		Observations: req.Observations,
	})
	if err != nil {
		writeJSON(w, statusForError(err), newErrorResponse(err))
		return
	}

	if req.Persist {
		if s.store == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "curve persistence is not configured"})
			return
		}
		if err := s.store.Save(r.Context(), result.Curve); err != nil {
			s.logger.Error("failed to persist curve %s: %v", result.Curve.ID, err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error: "failed to persist curve",
				Code:  apperrors.GetCode(err),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetCurve(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "curve persistence is not configured"})
		return
	}

	id, err := core.ParseCurveID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	curve, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, statusForError(err), newErrorResponse(err))
		return
	}
	writeJSON(w, http.StatusOK, curve)
}

func (s *Server) handleListCurves(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "curve persistence is not configured"})
		return
	}

	cohort := chi.URLParam(r, "cohort")
	curves, err := s.store.ListByCohort(r.Context(), cohort, 20)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, newErrorResponse(err))
		return
	}
	writeJSON(w, http.StatusOK, curves)
}

func statusForError(err error) int {
	switch {
	case core.IsInvalidInputError(err), errors.Is(err, core.ErrInsufficientData):
		return http.StatusBadRequest
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case core.IsConvergenceError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// codeForError maps domain sentinels to response codes; errors already carrying
// an application code (the database layer's, for instance) keep it.
func codeForError(err error) string {
	switch {
	case core.IsInvalidInputError(err), errors.Is(err, core.ErrInsufficientData):
		return apperrors.CodeInvalidInput
	case core.IsNotFoundError(err):
		return apperrors.CodeNotFound
	case core.IsConvergenceError(err):
		return apperrors.CodeConvergenceError
	}
	if code := apperrors.GetCode(err); code != "UNKNOWN" {
		return code
	}
	return apperrors.CodeInternalError
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
