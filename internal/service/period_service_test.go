package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-balancer/internal/dto"
	"github.com/noah-isme/timetable-balancer/internal/models"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
)

type periodMemoryRepo struct {
	periodRepoStub
	seq int
}

func (r *periodMemoryRepo) Create(ctx context.Context, period *models.Period) error {
	r.seq++
	period.ID = fmt.Sprintf("period-%d", r.seq)
	r.period = period
	return nil
}

func (r *periodMemoryRepo) AddDayNotAvailable(ctx context.Context, day *models.DayNotAvailable) error {
	r.days = append(r.days, *day)
	return nil
}

func (r *periodMemoryRepo) AddWeekNotAvailable(ctx context.Context, week *models.WeekNotAvailable) error {
	r.weeks = append(r.weeks, *week)
	return nil
}

func newPeriodFixture(t *testing.T) (*PeriodService, *models.Period) {
	t.Helper()
	svc := NewPeriodService(&periodMemoryRepo{}, nil, nil)
	period, err := svc.Create(context.Background(), dto.CreatePeriodRequest{
		Name:      "Fall 2024",
		StartDate: "2024-09-02",
		EndDate:   "2024-10-12",
	})
	require.NoError(t, err)
	return svc, period
}

func TestPeriodServiceCreate(t *testing.T) {
	svc, period := newPeriodFixture(t)
	assert.Equal(t, "period-1", period.ID)
	assert.Equal(t, 6, period.NumberOfWeeks())

	_, err := svc.Create(context.Background(), dto.CreatePeriodRequest{Name: "Bad", StartDate: "2024-09-08", EndDate: "2024-10-12"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), "sunday start")

	_, err = svc.Create(context.Background(), dto.CreatePeriodRequest{Name: "Short", StartDate: "2024-09-02", EndDate: "2024-09-06"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), "too few weeks")

	_, err = svc.Create(context.Background(), dto.CreatePeriodRequest{Name: "Bad", StartDate: "02/09/2024", EndDate: "2024-10-12"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), "bad date format")
}

func TestPeriodServiceAddDayNotAvailable(t *testing.T) {
	svc, period := newPeriodFixture(t)
	ctx := context.Background()

	day, err := svc.AddDayNotAvailable(ctx, period.ID, dto.AddDayNotAvailableRequest{Day: "2024-09-11", Reason: "holiday"})
	require.NoError(t, err)
	assert.Equal(t, period.ID, day.PeriodID)

	_, err = svc.AddDayNotAvailable(ctx, period.ID, dto.AddDayNotAvailableRequest{Day: "2024-09-15"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), "sunday")

	_, err = svc.AddDayNotAvailable(ctx, period.ID, dto.AddDayNotAvailableRequest{Day: "2024-12-02"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation), "outside period")

	_, err = svc.AddDayNotAvailable(ctx, "missing", dto.AddDayNotAvailableRequest{Day: "2024-09-11"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	days, err := svc.ListDaysNotAvailable(ctx, period.ID)
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestPeriodServiceAddWeekNotAvailable(t *testing.T) {
	svc, period := newPeriodFixture(t)
	ctx := context.Background()

	_, err := svc.AddWeekNotAvailable(ctx, period.ID, dto.AddWeekNotAvailableRequest{StartDate: "2024-09-20", EndDate: "2024-09-16"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))

	_, err = svc.AddWeekNotAvailable(ctx, period.ID, dto.AddWeekNotAvailableRequest{StartDate: "2024-09-16", EndDate: "2024-09-22", Reason: "break"})
	require.NoError(t, err)

	weeks, err := svc.ListWeeksNotAvailable(ctx, period.ID)
	require.NoError(t, err)
	require.Len(t, weeks, 1)
	assert.Equal(t, "break", weeks[0].Reason)
}

func TestPeriodServiceCalendar(t *testing.T) {
	svc, period := newPeriodFixture(t)
	ctx := context.Background()

	_, err := svc.AddWeekNotAvailable(ctx, period.ID, dto.AddWeekNotAvailableRequest{StartDate: "2024-09-09", EndDate: "2024-09-15"})
	require.NoError(t, err)
	_, err = svc.AddDayNotAvailable(ctx, period.ID, dto.AddDayNotAvailableRequest{Day: "2024-09-18"})
	require.NoError(t, err)

	cal, err := svc.Calendar(ctx, period.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, cal.NumberOfWeeks)
	assert.Equal(t, 5, cal.NumberOfWeeksExcludingUnavailable)
	require.Len(t, cal.WeekStarts, 5)
	assert.Equal(t, time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), cal.WeekStarts[0])
	assert.Equal(t, time.Date(2024, 9, 16, 0, 0, 0, 0, time.UTC), cal.WeekStarts[1])
	assert.Equal(t, []dto.BlackoutWeekday{{Week: 2, Weekday: 2}}, cal.BlackoutByWeek)
}
