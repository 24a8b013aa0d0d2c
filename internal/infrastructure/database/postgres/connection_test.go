package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudlens/fraudlens/internal/config"
	"github.com/fraudlens/fraudlens/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/fraudlens/fraudlens/pkg/errors"
)

func testDBConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "fraudlens",
		Password: "secret",
		DBName:   "fraudlens",
		SSLMode:  "disable",
	}
}

func withMockOpen(t *testing.T, db *sql.DB, openErr error) {
	t.Helper()
	original := sqlOpen
	t.Cleanup(func() { sqlOpen = original })
	sqlOpen = func(string, string) (*sql.DB, error) {
		if openErr != nil {
			return nil, openErr
		}
		return db, nil
	}
}

func TestNewConnectionSuccess(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	withMockOpen(t, db, nil)

	mock.ExpectPing()

	conn, err := NewConnection(testDBConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	assert.Same(t, db, conn.DB())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewConnectionPingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	withMockOpen(t, db, nil)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	_, err = NewConnection(testDBConfig(), logging.NewNopLogger())
	require.Error(t, err)

	var appErr *pkgerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.ErrCodeDatabaseError, appErr.Code)
}

func TestNewConnectionOpenFailure(t *testing.T) {
	withMockOpen(t, nil, errors.New("unknown driver"))

	_, err := NewConnection(testDBConfig(), logging.NewNopLogger())
	require.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	conn := NewConnectionWithDB(db, logging.NewNopLogger())

	mock.ExpectPing()
	assert.NoError(t, conn.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, conn.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	conn := NewConnectionWithDB(db, logging.NewNopLogger())

	mock.ExpectClose()
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := testDBConfig().DSN()
	assert.Equal(t,
		"host=localhost port=5432 user=fraudlens password=secret dbname=fraudlens sslmode=disable",
		dsn)
}
