package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-balancer/internal/dto"
	"github.com/noah-isme/timetable-balancer/internal/models"
	"github.com/noah-isme/timetable-balancer/internal/timetable"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
)

const dateLayout = "2006-01-02"

type periodRepository interface {
	periodReader
	Create(ctx context.Context, period *models.Period) error
	AddDayNotAvailable(ctx context.Context, day *models.DayNotAvailable) error
	AddWeekNotAvailable(ctx context.Context, week *models.WeekNotAvailable) error
}

// PeriodService manages periods and their closed days and weeks.
type PeriodService struct {
	repo      periodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs a PeriodService.
func NewPeriodService(repo periodRepository, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, validator: validate, logger: logger}
}

// Create validates the week span and stores a new period.
func (s *PeriodService) Create(ctx context.Context, req dto.CreatePeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)

	period := &models.Period{Name: req.Name, StartDate: start, EndDate: end}
	if err := period.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	s.logger.Info("period created", zap.String("period_id", period.ID), zap.Int("weeks", period.NumberOfWeeks()))
	return period, nil
}

// Get returns a period by id.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

// AddDayNotAvailable closes one date of the period. Sundays are never taught and are rejected.
func (s *PeriodService) AddDayNotAvailable(ctx context.Context, periodID string, req dto.AddDayNotAvailableRequest) (*models.DayNotAvailable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day payload")
	}
	period, err := s.Get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	day, _ := time.Parse(dateLayout, req.Day)
	if day.Weekday() == time.Sunday {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day cannot be a Sunday")
	}
	if !(timetable.DateRange{Start: period.StartDate, End: period.EndDate}).Contains(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day must fall within the period")
	}

	record := &models.DayNotAvailable{PeriodID: period.ID, Day: day, Reason: req.Reason}
	if err := s.repo.AddDayNotAvailable(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store unavailable day")
	}
	return record, nil
}

// AddWeekNotAvailable closes a date range of the period.
func (s *PeriodService) AddWeekNotAvailable(ctx context.Context, periodID string, req dto.AddWeekNotAvailableRequest) (*models.WeekNotAvailable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week payload")
	}
	period, err := s.Get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}

	record := &models.WeekNotAvailable{PeriodID: period.ID, StartDate: start, EndDate: end, Reason: req.Reason}
	if err := s.repo.AddWeekNotAvailable(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store unavailable week")
	}
	return record, nil
}

// ListDaysNotAvailable returns the closed dates of a period.
func (s *PeriodService) ListDaysNotAvailable(ctx context.Context, periodID string) ([]models.DayNotAvailable, error) {
	if _, err := s.Get(ctx, periodID); err != nil {
		return nil, err
	}
	days, err := s.repo.ListDaysNotAvailable(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unavailable days")
	}
	return days, nil
}

// ListWeeksNotAvailable returns the closed ranges of a period.
func (s *PeriodService) ListWeeksNotAvailable(ctx context.Context, periodID string) ([]models.WeekNotAvailable, error) {
	if _, err := s.Get(ctx, periodID); err != nil {
		return nil, err
	}
	weeks, err := s.repo.ListWeeksNotAvailable(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unavailable weeks")
	}
	return weeks, nil
}

// Calendar reports the week arithmetic the balancer will use for the period.
func (s *PeriodService) Calendar(ctx context.Context, periodID string) (*dto.PeriodCalendarResponse, error) {
	period, err := s.Get(ctx, periodID)
	if err != nil {
		return nil, err
	}
	days, err := s.repo.ListDaysNotAvailable(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unavailable days")
	}
	weeks, err := s.repo.ListWeeksNotAvailable(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unavailable weeks")
	}

	cal := period.Calendar(days, weeks)
	usable := period.NumberOfWeeksExcludingUnavailable(weeks)
	resp := &dto.PeriodCalendarResponse{
		PeriodID:                          period.ID,
		Start:                             period.Start(),
		End:                               period.End(),
		NumberOfWeeks:                     period.NumberOfWeeks(),
		NumberOfWeeksExcludingUnavailable: usable,
		BlackoutByWeek:                    []dto.BlackoutWeekday{},
		WeekStarts:                        []time.Time{},
	}
	for _, b := range cal.BlackoutByWeek() {
		resp.BlackoutByWeek = append(resp.BlackoutByWeek, dto.BlackoutWeekday{Week: b.Week, Weekday: b.Weekday})
	}
	if usable > 0 {
		resp.WeekStarts = cal.WeekStarts(usable)
	}
	return resp, nil
}
