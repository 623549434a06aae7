package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestVolunteerShiftRepositoryRegister(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVolunteerShiftRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_volunteers FROM shifts WHERE id = $1 FOR UPDATE")).
		WithArgs("shift-1").
		WillReturnRows(sqlmock.NewRows([]string{"max_volunteers"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM volunteer_shifts WHERE volunteer_id = $1 AND shift_id = $2")).
		WithArgs("vol-1", "shift-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM volunteer_shifts WHERE shift_id = $1")).
		WithArgs("shift-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT INTO volunteer_shifts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assoc, err := repo.Register(context.Background(), "vol-1", "shift-1")
	require.NoError(t, err)
	require.NotEmpty(t, assoc.ID)
	require.Equal(t, "vol-1", assoc.VolunteerID)
	require.Equal(t, "shift-1", assoc.ShiftID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVolunteerShiftRepositoryRegisterDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVolunteerShiftRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_volunteers FROM shifts WHERE id = $1 FOR UPDATE")).
		WithArgs("shift-1").
		WillReturnRows(sqlmock.NewRows([]string{"max_volunteers"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM volunteer_shifts WHERE volunteer_id = $1 AND shift_id = $2")).
		WithArgs("vol-1", "shift-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "vol-1", "shift-1")
	require.ErrorIs(t, err, ErrDuplicateSignup)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVolunteerShiftRepositoryRegisterFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVolunteerShiftRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_volunteers FROM shifts WHERE id = $1 FOR UPDATE")).
		WithArgs("shift-1").
		WillReturnRows(sqlmock.NewRows([]string{"max_volunteers"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM volunteer_shifts WHERE volunteer_id = $1 AND shift_id = $2")).
		WithArgs("vol-1", "shift-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM volunteer_shifts WHERE shift_id = $1")).
		WithArgs("shift-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "vol-1", "shift-1")
	require.ErrorIs(t, err, ErrNoSlots)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVolunteerShiftRepositoryRegisterMissingShift(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVolunteerShiftRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT max_volunteers FROM shifts WHERE id = $1 FOR UPDATE")).
		WithArgs("shift-x").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Register(context.Background(), "vol-1", "shift-x")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVolunteerShiftRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVolunteerShiftRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM volunteer_shifts WHERE volunteer_id = $1 AND shift_id = $2")).
		WithArgs("vol-1", "shift-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "vol-1", "shift-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVolunteerShiftRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVolunteerShiftRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM volunteer_shifts WHERE volunteer_id = $1 AND shift_id = $2")).
		WithArgs("vol-1", "shift-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "vol-1", "shift-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVolunteerShiftRepositorySetHours(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVolunteerShiftRepository(db)

	loggedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE volunteer_shifts SET start_time").
		WithArgs("09:00", "12:00", loggedAt, "vol-1", "shift-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetHours(context.Background(), "vol-1", "shift-1", "09:00", "12:00", loggedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}
