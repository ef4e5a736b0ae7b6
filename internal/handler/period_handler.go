package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-balancer/internal/dto"
	"github.com/noah-isme/timetable-balancer/internal/models"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
	"github.com/noah-isme/timetable-balancer/pkg/response"
)

type periodService interface {
	Create(ctx context.Context, req dto.CreatePeriodRequest) (*models.Period, error)
	Get(ctx context.Context, id string) (*models.Period, error)
	AddDayNotAvailable(ctx context.Context, periodID string, req dto.AddDayNotAvailableRequest) (*models.DayNotAvailable, error)
	AddWeekNotAvailable(ctx context.Context, periodID string, req dto.AddWeekNotAvailableRequest) (*models.WeekNotAvailable, error)
	ListDaysNotAvailable(ctx context.Context, periodID string) ([]models.DayNotAvailable, error)
	ListWeeksNotAvailable(ctx context.Context, periodID string) ([]models.WeekNotAvailable, error)
	Calendar(ctx context.Context, periodID string) (*dto.PeriodCalendarResponse, error)
}

// PeriodHandler exposes period and blackout endpoints.
type PeriodHandler struct {
	service periodService
}

// NewPeriodHandler constructs the handler.
func NewPeriodHandler(svc periodService) *PeriodHandler {
	return &PeriodHandler{service: svc}
}

// Create godoc
// @Summary Create period
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body dto.CreatePeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req dto.CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid period payload"))
		return
	}
	period, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Get godoc
// @Summary Get period
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// AddDayNotAvailable godoc
// @Summary Close a single day of the period
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body dto.AddDayNotAvailableRequest true "Day payload"
// @Success 201 {object} response.Envelope
// @Router /periods/{id}/days-not-available [post]
func (h *PeriodHandler) AddDayNotAvailable(c *gin.Context) {
	var req dto.AddDayNotAvailableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid day payload"))
		return
	}
	day, err := h.service.AddDayNotAvailable(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, day)
}

// ListDaysNotAvailable godoc
// @Summary List closed days
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/days-not-available [get]
func (h *PeriodHandler) ListDaysNotAvailable(c *gin.Context) {
	days, err := h.service.ListDaysNotAvailable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}

// AddWeekNotAvailable godoc
// @Summary Close the weeks starting inside a date range
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body dto.AddWeekNotAvailableRequest true "Week payload"
// @Success 201 {object} response.Envelope
// @Router /periods/{id}/weeks-not-available [post]
func (h *PeriodHandler) AddWeekNotAvailable(c *gin.Context) {
	var req dto.AddWeekNotAvailableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid week payload"))
		return
	}
	week, err := h.service.AddWeekNotAvailable(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, week)
}

// ListWeeksNotAvailable godoc
// @Summary List closed weeks
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/weeks-not-available [get]
func (h *PeriodHandler) ListWeeksNotAvailable(c *gin.Context) {
	weeks, err := h.service.ListWeeksNotAvailable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weeks, nil)
}

// Calendar godoc
// @Summary Week arithmetic of a period
// @Description Returns week counts, usable week starts and weekday blackouts per teaching week.
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/calendar [get]
func (h *PeriodHandler) Calendar(c *gin.Context) {
	cal, err := h.service.Calendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cal, nil)
}
