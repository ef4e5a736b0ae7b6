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

func TestScheduleRepositoryCreateLinksSubjects(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WithArgs(sqlmock.AnyArg(), "career-1", "year-1", "period-1", nil, nil, sqlmock.AnyArg(), nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_subjects")).
		WithArgs(sqlmock.AnyArg(), "s1", 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_subjects")).
		WithArgs(sqlmock.AnyArg(), "s2", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.Schedule{CareerID: "career-1", YearID: "year-1", PeriodID: "period-1"}
	require.NoError(t, repo.Create(context.Background(), nil, schedule, []string{"s1", "s2"}))
	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, "{}", string(schedule.Meta))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "career_id", "year_id", "period_id", "class_room", "group_name", "meta", "created_by", "created_at", "updated_at"}).
		AddRow("sch-1", "career-1", "year-1", "period-1", nil, nil, []byte(`{}`), nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, career_id, year_id, period_id, class_room, group_name, meta, created_by, created_at, updated_at FROM schedules WHERE 1=1 AND career_id = $1 AND period_id = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("career-1", "period-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE 1=1 AND career_id = $1 AND period_id = $2")).
		WithArgs("career-1", "period-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schedules, total, err := repo.List(context.Background(), models.ScheduleFilter{CareerID: "career-1", PeriodID: "period-1"})
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositorySubjectIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT subject_id FROM schedule_subjects WHERE schedule_id = $1 ORDER BY position ASC")).
		WithArgs("sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id"}).AddRow("s2").AddRow("s1"))

	ids, err := repo.SubjectIDs(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
