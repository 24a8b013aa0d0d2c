package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudlens/fraudlens/internal/domain/claim"
	pkgerrors "github.com/fraudlens/fraudlens/pkg/errors"
)

func newMockRepo(t *testing.T) (*ClaimRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewClaimRepository(db, nil, nil), mock
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestSnapshot(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"doctor", "diagnosis", "cost"}).
		AddRow("smith", "flu", 100.0).
		AddRow(nil, "cold", nil).
		AddRow("jones", nil, 250.5)
	mock.ExpectQuery(regexp.QuoteMeta(snapshotQuery)).WillReturnRows(rows)

	records, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "smith", *records[0].Doctor)
	assert.Equal(t, "flu", *records[0].Diagnosis)
	assert.Equal(t, 100.0, *records[0].Cost)

	assert.Nil(t, records[1].Doctor)
	assert.Nil(t, records[1].Cost)
	assert.Equal(t, "cold", *records[1].Diagnosis)

	assert.Nil(t, records[2].Diagnosis)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(snapshotQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"doctor", "diagnosis", "cost"}))

	records, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSnapshotQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(snapshotQuery)).
		WillReturnError(errors.New("relation does not exist"))

	_, err := repo.Snapshot(context.Background())
	require.Error(t, err)

	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.ErrCodeDatabaseError, appErr.Code)
}

func TestSave(t *testing.T) {
	repo, mock := newMockRepo(t)

	rec := &claim.ClaimRecord{
		ID:         uuid.New(),
		Doctor:     strPtr("smith"),
		Diagnosis:  strPtr("flu"),
		Cost:       f64Ptr(100.0),
		RiskScore:  0.75,
		Prediction: claim.PredictionHighRisk,
		CreatedAt:  time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(rec.ID, rec.Doctor, rec.Diagnosis, rec.Cost,
			rec.RiskScore, string(rec.Prediction), rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WillReturnError(errors.New("deadlock detected"))

	err := repo.Save(context.Background(), &claim.ClaimRecord{ID: uuid.New()})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeClaimPersistFailed))
}

func TestStats(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(statsQuery)).
		WithArgs(claim.HighRiskStatsThreshold).
		WillReturnRows(sqlmock.NewRows([]string{"count", "high", "low", "avg"}).
			AddRow(10, 3, 7, 0.42))
	mock.ExpectQuery(regexp.QuoteMeta(topDoctorsQuery)).
		WithArgs(claim.TopListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"doctor", "n"}).
			AddRow("smith", 6).
			AddRow("jones", 4))
	mock.ExpectQuery(regexp.QuoteMeta(topDiagnosesQuery)).
		WithArgs(claim.TopListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"diagnosis", "n"}).
			AddRow("flu", 5))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(10), stats.TotalClaims)
	assert.Equal(t, int64(3), stats.HighRiskClaims)
	assert.Equal(t, int64(7), stats.LowRiskClaims)
	assert.Equal(t, 0.42, stats.AverageRisk)
	assert.Equal(t, []claim.NameCount{{Name: "smith", Count: 6}, {Name: "jones", Count: 4}}, stats.TopDoctors)
	assert.Equal(t, []claim.NameCount{{Name: "flu", Count: 5}}, stats.TopDiagnoses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsEmptyCorpus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(statsQuery)).
		WithArgs(claim.HighRiskStatsThreshold).
		WillReturnRows(sqlmock.NewRows([]string{"count", "high", "low", "avg"}).
			AddRow(0, 0, 0, 0.0))
	mock.ExpectQuery(regexp.QuoteMeta(topDoctorsQuery)).
		WithArgs(claim.TopListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"doctor", "n"}))
	mock.ExpectQuery(regexp.QuoteMeta(topDiagnosesQuery)).
		WithArgs(claim.TopListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"diagnosis", "n"}))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalClaims)
	assert.Empty(t, stats.TopDoctors)
	assert.Empty(t, stats.TopDiagnoses)
}

func TestRecordFeedback(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(feedbackQuery)).
		WithArgs(id, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordFeedback(context.Background(), id, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFeedbackNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(feedbackQuery)).
		WithArgs(id, false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RecordFeedback(context.Background(), id, false)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRecordFeedbackExecError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(feedbackQuery)).
		WillReturnError(sql.ErrConnDone)

	err := repo.RecordFeedback(context.Background(), uuid.New(), true)
	require.Error(t, err)
	assert.False(t, pkgerrors.IsNotFound(err))
}
