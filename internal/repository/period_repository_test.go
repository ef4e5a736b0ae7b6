package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-balancer/internal/models"
)

func TestPeriodRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 13, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO periods")).
		WithArgs(sqlmock.AnyArg(), "Fall 2024", start, end, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	period := &models.Period{Name: "Fall 2024", StartDate: start, EndDate: end}
	require.NoError(t, repo.Create(context.Background(), period))
	assert.NotEmpty(t, period.ID)
	assert.False(t, period.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM periods WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryBlackouts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)
	ctx := context.Background()
	day := time.Date(2024, 9, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO days_not_available")).
		WithArgs(sqlmock.AnyArg(), "period-1", day, "holiday", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.AddDayNotAvailable(ctx, &models.DayNotAvailable{PeriodID: "period-1", Day: day, Reason: "holiday"}))

	dayRows := sqlmock.NewRows([]string{"id", "period_id", "day", "reason", "created_at"}).
		AddRow("d1", "period-1", day, "holiday", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, period_id, day, reason, created_at FROM days_not_available WHERE period_id = $1 ORDER BY day ASC")).
		WithArgs("period-1").
		WillReturnRows(dayRows)
	days, err := repo.ListDaysNotAvailable(ctx, "period-1")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, day, days[0].Day)

	weekStart := time.Date(2024, 9, 9, 0, 0, 0, 0, time.UTC)
	weekEnd := time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO weeks_not_available")).
		WithArgs(sqlmock.AnyArg(), "period-1", weekStart, weekEnd, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.AddWeekNotAvailable(ctx, &models.WeekNotAvailable{PeriodID: "period-1", StartDate: weekStart, EndDate: weekEnd}))

	weekRows := sqlmock.NewRows([]string{"id", "period_id", "start_date", "end_date", "reason", "created_at"}).
		AddRow("w1", "period-1", weekStart, weekEnd, "", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM weeks_not_available WHERE period_id = $1 ORDER BY start_date ASC")).
		WithArgs("period-1").
		WillReturnRows(weekRows)
	weeks, err := repo.ListWeeksNotAvailable(ctx, "period-1")
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	assert.Equal(t, weekEnd, weeks[0].EndDate)

	assert.NoError(t, mock.ExpectationsWereMet())
}
