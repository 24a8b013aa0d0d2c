// Package repositories provides the PostgreSQL-backed implementation of the
// claim domain repository.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/fraudlens/fraudlens/internal/domain/claim"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/prometheus"
	"github.com/fraudlens/fraudlens/pkg/errors"
)

// ClaimRepository persists scored claims and serves the historical corpus.
type ClaimRepository struct {
	db      *sql.DB
	logger  logging.Logger
	metrics *prometheus.AppMetrics
}

// NewClaimRepository wires a repository over an established pool.
func NewClaimRepository(db *sql.DB, logger logging.Logger, metrics *prometheus.AppMetrics) *ClaimRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	return &ClaimRepository{
		db:      db,
		logger:  logger.Named("claimrepo"),
		metrics: metrics,
	}
}

var _ claim.Repository = (*ClaimRepository)(nil)

const snapshotQuery = `
SELECT doctor, diagnosis, cost
FROM claims`

// Snapshot loads the full historical corpus used for frequency counting and
// cost-outlier fitting.
func (r *ClaimRepository) Snapshot(ctx context.Context) ([]claim.HistoricalRecord, error) {
	defer r.observe("snapshot", time.Now())

	rows, err := r.db.QueryContext(ctx, snapshotQuery)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load claim history")
	}
	defer rows.Close()

	var records []claim.HistoricalRecord
	for rows.Next() {
		var rec claim.HistoricalRecord
		if err := rows.Scan(&rec.Doctor, &rec.Diagnosis, &rec.Cost); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan claim history row")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate claim history")
	}
	return records, nil
}

const insertQuery = `
INSERT INTO claims (id, doctor, diagnosis, cost, risk_score, prediction, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Save stores one scored claim.
func (r *ClaimRepository) Save(ctx context.Context, rec *claim.ClaimRecord) error {
	defer r.observe("save", time.Now())

	_, err := r.db.ExecContext(ctx, insertQuery,
		rec.ID, rec.Doctor, rec.Diagnosis, rec.Cost,
		rec.RiskScore, string(rec.Prediction), rec.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeClaimPersistFailed, "failed to persist claim")
	}
	return nil
}

const statsQuery = `
SELECT
    COUNT(*),
    COUNT(*) FILTER (WHERE risk_score > $1),
    COUNT(*) FILTER (WHERE risk_score <= $1),
    COALESCE(AVG(risk_score), 0)
FROM claims`

const topDoctorsQuery = `
SELECT doctor, COUNT(*) AS n
FROM claims
WHERE doctor IS NOT NULL
GROUP BY doctor
ORDER BY n DESC, doctor ASC
LIMIT $1`

const topDiagnosesQuery = `
SELECT diagnosis, COUNT(*) AS n
FROM claims
WHERE diagnosis IS NOT NULL
GROUP BY diagnosis
ORDER BY n DESC, diagnosis ASC
LIMIT $1`

// Stats computes the aggregate claim report.
func (r *ClaimRepository) Stats(ctx context.Context) (*claim.Stats, error) {
	defer r.observe("stats", time.Now())

	stats := &claim.Stats{}
	err := r.db.QueryRowContext(ctx, statsQuery, claim.HighRiskStatsThreshold).Scan(
		&stats.TotalClaims, &stats.HighRiskClaims, &stats.LowRiskClaims, &stats.AverageRisk)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to aggregate claim stats")
	}

	stats.TopDoctors, err = r.topNames(ctx, topDoctorsQuery)
	if err != nil {
		return nil, err
	}
	stats.TopDiagnoses, err = r.topNames(ctx, topDiagnosesQuery)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *ClaimRepository) topNames(ctx context.Context, query string) ([]claim.NameCount, error) {
	rows, err := r.db.QueryContext(ctx, query, claim.TopListLimit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load top names")
	}
	defer rows.Close()

	var out []claim.NameCount
	for rows.Next() {
		var nc claim.NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan top-name row")
		}
		out = append(out, nc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate top names")
	}
	return out, nil
}

const feedbackQuery = `
UPDATE claims
SET is_fraud = $2
WHERE id = $1`

// RecordFeedback stores an adjuster's fraud label for an analyzed claim.
func (r *ClaimRepository) RecordFeedback(ctx context.Context, id uuid.UUID, isFraud bool) error {
	defer r.observe("feedback", time.Now())

	res, err := r.db.ExecContext(ctx, feedbackQuery, id, isFraud)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to record feedback")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read feedback result")
	}
	if affected == 0 {
		return errors.New(errors.ErrCodeClaimNotFound, "claim "+id.String()+" not found")
	}
	return nil
}

func (r *ClaimRepository) observe(query string, start time.Time) {
	r.metrics.DBQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
