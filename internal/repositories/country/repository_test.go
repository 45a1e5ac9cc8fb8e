package country

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	db := database.NewDatabaseInstance(sqlx.NewDb(mockDB, "sqlmock"), logger)
	return NewRepository(db, logger), mock
}

func TestGetByName(t *testing.T) {
	repo, mock := newTestRepository(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"code", "name", "created_at", "updated_at"}).
		AddRow("JP", "Japan", now, now)
	mock.ExpectQuery(`SELECT code, name, created_at, updated_at FROM countries`).
		WithArgs("Japan").
		WillReturnRows(rows)

	country, err := repo.GetByName(context.Background(), "Japan")
	require.NoError(t, err)
	assert.Equal(t, "JP", country.Code)
	assert.Equal(t, "Japan", country.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByName_NotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT code, name, created_at, updated_at FROM countries`).
		WillReturnError(sql.ErrNoRows)

	country, err := repo.GetByName(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Nil(t, country)
	assert.True(t, httperror.IsHTTPError(err))
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestGetByName_CaseSensitive(t *testing.T) {
	repo, mock := newTestRepository(t)

	// lookup passes the name through untouched, the stored spelling decides
	mock.ExpectQuery(`SELECT code, name, created_at, updated_at FROM countries`).
		WithArgs("japan").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByName(context.Background(), "japan")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByName_DatabaseError(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT code, name, created_at, updated_at FROM countries`).
		WillReturnError(errors.New("connection refused"))

	country, err := repo.GetByName(context.Background(), "Japan")
	require.Error(t, err)
	assert.Nil(t, country)
	assert.Equal(t, http.StatusInternalServerError, httperror.GetStatusCode(err))
}

func TestGetByCode_NotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT code, name, created_at, updated_at FROM countries`).
		WithArgs("XX").
		WillReturnError(sql.ErrNoRows)

	country, err := repo.GetByCode(context.Background(), "XX")
	require.Error(t, err)
	assert.Nil(t, country)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestList(t *testing.T) {
	repo, mock := newTestRepository(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"code", "name", "created_at", "updated_at"}).
		AddRow("FR", "France", now, now).
		AddRow("JP", "Japan", now, now)
	mock.ExpectQuery(`SELECT code, name, created_at, updated_at FROM countries`).
		WillReturnRows(rows)

	countries, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "France", countries[0].Name)
	assert.Equal(t, "Japan", countries[1].Name)
}
