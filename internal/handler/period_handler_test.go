package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-balancer/internal/dto"
	"github.com/noah-isme/timetable-balancer/internal/models"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
)

type periodServiceMock struct {
	created *dto.CreatePeriodRequest
	day     *dto.AddDayNotAvailableRequest
	err     error
}

func (m *periodServiceMock) Create(ctx context.Context, req dto.CreatePeriodRequest) (*models.Period, error) {
	m.created = &req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Period{ID: "period-1", Name: req.Name}, nil
}

func (m *periodServiceMock) Get(ctx context.Context, id string) (*models.Period, error) {
	return &models.Period{ID: id}, m.err
}

func (m *periodServiceMock) AddDayNotAvailable(ctx context.Context, periodID string, req dto.AddDayNotAvailableRequest) (*models.DayNotAvailable, error) {
	m.day = &req
	if m.err != nil {
		return nil, m.err
	}
	return &models.DayNotAvailable{ID: "day-1", PeriodID: periodID}, nil
}

func (m *periodServiceMock) AddWeekNotAvailable(ctx context.Context, periodID string, req dto.AddWeekNotAvailableRequest) (*models.WeekNotAvailable, error) {
	return &models.WeekNotAvailable{ID: "week-1", PeriodID: periodID}, m.err
}

func (m *periodServiceMock) ListDaysNotAvailable(ctx context.Context, periodID string) ([]models.DayNotAvailable, error) {
	return nil, m.err
}

func (m *periodServiceMock) ListWeeksNotAvailable(ctx context.Context, periodID string) ([]models.WeekNotAvailable, error) {
	return nil, m.err
}

func (m *periodServiceMock) Calendar(ctx context.Context, periodID string) (*dto.PeriodCalendarResponse, error) {
	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	return &dto.PeriodCalendarResponse{PeriodID: periodID, Start: start, NumberOfWeeks: 3, NumberOfWeeksExcludingUnavailable: 3}, m.err
}

func TestPeriodHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &periodServiceMock{}
	handler := NewPeriodHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/periods", []byte(`{"name":"Fall","startDate":"2024-09-02","endDate":"2024-12-20"}`))
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mockSvc.created)
	assert.Equal(t, "2024-09-02", mockSvc.created.StartDate)
}

func TestPeriodHandlerAddDayPropagatesValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &periodServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "sundays are never taught")}
	handler := NewPeriodHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/periods/period-1/days-not-available", []byte(`{"day":"2024-09-08"}`))
	c.Params = gin.Params{{Key: "id", Value: "period-1"}}
	handler.AddDayNotAvailable(c)
	require.Equal(t, appErrors.ErrValidation.Status, w.Code)
	assert.Equal(t, "2024-09-08", mockSvc.day.Day)
}

func TestPeriodHandlerCalendar(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPeriodHandler(&periodServiceMock{})

	c, w := newGinContext(http.MethodGet, "/periods/period-1/calendar", nil)
	c.Params = gin.Params{{Key: "id", Value: "period-1"}}
	handler.Calendar(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"numberOfWeeks":3`)
}
