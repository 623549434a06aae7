package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/openvolunteer/vms-api/internal/models"
)

func TestEventRepositorySearchByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%Cleanup%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{"id", "name", "description", "start_date", "end_date",
		"address", "city", "state", "country", "venue", "created_at", "updated_at"}).
		AddRow("evt-1", "Beach Cleanup", "", time.Now(), time.Now(), nil, nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("SELECT e.id, e.name").
		WithArgs("%Cleanup%", 20, 0).
		WillReturnRows(rows)

	events, total, err := repo.Search(context.Background(), models.EventFilter{Name: "Cleanup", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, events, 1)
	require.Equal(t, "Beach Cleanup", events[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListJobNamesOutsideRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM jobs")).
		WithArgs("evt-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Greeter").AddRow("Greeter").AddRow("Setup"))

	names, err := repo.ListJobNamesOutsideRange(context.Background(), "evt-1", start, end)
	require.NoError(t, err)
	require.Equal(t, []string{"Greeter", "Greeter", "Setup"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCountJobs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM jobs WHERE event_id = $1")).
		WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountJobs(context.Background(), "evt-1")
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
