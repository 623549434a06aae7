package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/openvolunteer/vms-api/internal/dto"
	"github.com/openvolunteer/vms-api/internal/models"
)

func TestReportRepositoryRowsFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"volunteer_shift_id", "volunteer_id", "first_name", "last_name",
		"event_name", "job_name", "shift_date", "logged_start", "logged_end"}).
		AddRow("vs-1", "vol-1", "Ada", "Smith", "Fair", "Greeter", time.Now(), "09:00", "12:00")
	mock.ExpectQuery("SELECT vs.id AS volunteer_shift_id").
		WithArgs("vol-1", "%Fair%").
		WillReturnRows(rows)

	result, err := repo.Rows(context.Background(), dto.ReportFilter{EventName: "Fair"}, "vol-1")
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, "09:00", result[0].StartTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositorySetStatusApprove(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT confirm_status FROM reports WHERE id = $1 FOR UPDATE")).
		WithArgs("rep-1").
		WillReturnRows(sqlmock.NewRows([]string{"confirm_status"}).AddRow(int(models.ReportPending)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET confirm_status = $1 WHERE id = $2")).
		WithArgs(models.ReportApproved, "rep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetStatus(context.Background(), "rep-1", models.ReportApproved))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositorySetStatusAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT confirm_status FROM reports WHERE id = $1 FOR UPDATE")).
		WithArgs("rep-1").
		WillReturnRows(sqlmock.NewRows([]string{"confirm_status"}).AddRow(int(models.ReportApproved)))
	mock.ExpectRollback()

	err := repo.SetStatus(context.Background(), "rep-1", models.ReportRejected)
	require.ErrorIs(t, err, ErrNotPending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositorySetStatusRejectReleasesMembers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT confirm_status FROM reports WHERE id = $1 FOR UPDATE")).
		WithArgs("rep-1").
		WillReturnRows(sqlmock.NewRows([]string{"confirm_status"}).AddRow(int(models.ReportPending)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET confirm_status = $1 WHERE id = $2")).
		WithArgs(models.ReportRejected, "rep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE volunteer_shifts SET report_status = false").
		WithArgs("rep-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.SetStatus(context.Background(), "rep-1", models.ReportRejected))
	require.NoError(t, mock.ExpectationsWereMet())
}
