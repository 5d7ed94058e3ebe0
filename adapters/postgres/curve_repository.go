package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"gosurv/domain/core"
	"gosurv/domain/survival"
	apperrors "gosurv/internal/errors"
)

// CurveRepository persists estimated survival curves in PostgreSQL.
type CurveRepository struct {
	db *sqlx.DB
}

// NewCurveRepository creates a new PostgreSQL curve repository.
func NewCurveRepository(db *sqlx.DB) *CurveRepository {
	return &CurveRepository{db: db}
}

// Migrate creates the backing table when it does not exist yet.
func (r *CurveRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS survival_curves (
			id          UUID PRIMARY KEY,
			cohort      TEXT NOT NULL,
			weighting   TEXT NOT NULL,
			alpha       DOUBLE PRECISION NOT NULL,
			iterations  INTEGER NOT NULL,
			confidence  DOUBLE PRECISION NOT NULL,
			fingerprint TEXT NOT NULL,
			points      JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)
	`)
	return apperrors.WithCode(apperrors.CodeDatabaseError, err)
}

// Save stores a curve.
func (r *CurveRepository) Save(ctx context.Context, curve *survival.SurvivalCurve) error {
	points, err := json.Marshal(curve.Points)
	if err != nil {
		return apperrors.Wrapf(err, "encode points for curve %s", curve.ID)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO survival_curves (id, cohort, weighting, alpha, iterations, confidence, fingerprint, points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, curve.ID.String(), curve.Cohort, curve.Weighting, curve.Alpha, curve.Iterations,
		curve.Confidence, curve.Fingerprint.String(), points, curve.CreatedAt.Time())
	return apperrors.WithCode(apperrors.CodeDatabaseError, err)
}

type curveRow struct {
	ID          string    `db:"id"`
	Cohort      string    `db:"cohort"`
	Weighting   string    `db:"weighting"`
	Alpha       float64   `db:"alpha"`
	Iterations  int       `db:"iterations"`
	Confidence  float64   `db:"confidence"`
	Fingerprint string    `db:"fingerprint"`
	Points      []byte    `db:"points"`
	CreatedAt   time.Time `db:"created_at"`
}

// Get retrieves a curve by ID. Returns an error satisfying
// core.IsNotFoundError when the curve does not exist.
func (r *CurveRepository) Get(ctx context.Context, id core.CurveID) (*survival.SurvivalCurve, error) {
	var row curveRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, cohort, weighting, alpha, iterations, confidence, fingerprint, points, created_at
		FROM survival_curves
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewCurveNotFoundError(id.String())
	}
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return row.toCurve()
}

// ListByCohort returns the most recent curves for a cohort, newest first.
func (r *CurveRepository) ListByCohort(ctx context.Context, cohort string, limit int) ([]*survival.SurvivalCurve, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []curveRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, cohort, weighting, alpha, iterations, confidence, fingerprint, points, created_at
		FROM survival_curves
		WHERE cohort = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, cohort, limit)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}

	curves := make([]*survival.SurvivalCurve, 0, len(rows))
	for _, row := range rows {
		curve, err := row.toCurve()
		if err != nil {
			return nil, err
		}
		curves = append(curves, curve)
	}
	return curves, nil
}

func (row curveRow) toCurve() (*survival.SurvivalCurve, error) {
	var points []survival.SurvivalPoint
	if err := json.Unmarshal(row.Points, &points); err != nil {
		return nil, apperrors.Wrapf(err, "decode points for curve %s", row.ID)
	}
	return &survival.SurvivalCurve{
		ID:          core.CurveID(row.ID),
		Cohort:      row.Cohort,
		Points:      points,
		Weighting:   row.Weighting,
		Alpha:       row.Alpha,
		Iterations:  row.Iterations,
		Confidence:  row.Confidence,
		Fingerprint: core.Hash(row.Fingerprint),
		CreatedAt:   core.NewTimestamp(row.CreatedAt),
	}, nil
}
