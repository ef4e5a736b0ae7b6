package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-balancer/internal/models"
)

func TestClassTimeRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassTimeRepository(db)

	day := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	teacher := "t1"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_times")).
		WithArgs(sqlmock.AnyArg(), "sch-1", "s1", "t1", day, 1, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_time_activities")).
		WithArgs(sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_times")).
		WithArgs(sqlmock.AnyArg(), "sch-1", "s2", nil, day, 2, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_times")).
		WithArgs(sqlmock.AnyArg(), "sch-1", nil, nil, day, 3, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s1, s2 := "s1", "s2"
	classTimes := []models.ClassTime{
		{ScheduleID: "sch-1", SubjectID: &s1, TeacherID: &teacher, Day: day, Number: 1, ActivityIDs: []string{"a1"}},
		{ScheduleID: "sch-1", SubjectID: &s2, Day: day, Number: 2},
		{ScheduleID: "sch-1", Day: day, Number: 3},
	}
	require.NoError(t, repo.InsertBatch(context.Background(), nil, classTimes))
	assert.NotEmpty(t, classTimes[0].ID)
	assert.NotEqual(t, classTimes[0].ID, classTimes[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassTimeRepositoryListViewBySchedule(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassTimeRepository(db)

	day := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "day", "number", "week", "subject_id", "subject_name", "subject_symbology", "teacher_name"}).
		AddRow("ct1", day, 1, 0, "s1", "Mathematics", "MAT", "Ada").
		AddRow("ct2", day, 2, 0, "s2", "Physics", "FIS", nil).
		AddRow("ct3", day, 3, 0, "", "", "", nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN subjects s ON s.id = ct.subject_id")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	links := sqlmock.NewRows([]string{"class_time_id", "symbology"}).
		AddRow("ct1", "1").
		AddRow("ct1", "3")
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_time_activities cta")).
		WithArgs("sch-1").
		WillReturnRows(links)

	views, err := repo.ListViewBySchedule(context.Background(), "sch-1")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, []string{"1", "3"}, views[0].Activities)
	assert.Empty(t, views[2].SubjectID)
	assert.Empty(t, views[2].SubjectName)
	assert.Nil(t, views[1].Activities)
	require.NotNil(t, views[0].TeacherName)
	assert.Equal(t, "Ada", *views[0].TeacherName)
	assert.Nil(t, views[1].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
