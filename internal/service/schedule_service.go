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
	"github.com/noah-isme/timetable-balancer/pkg/cache"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
	"github.com/noah-isme/timetable-balancer/pkg/logger"
)

type scheduleRepository interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Delete(ctx context.Context, id string) error
}

type classTimeReader interface {
	ListViewBySchedule(ctx context.Context, scheduleID string) ([]models.ClassTimeView, error)
}

type loadBalanceReader interface {
	FindBySchedule(ctx context.Context, scheduleID string) (*models.LoadBalance, error)
}

type scheduleCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// ScheduleService reads and removes persisted schedules.
type ScheduleService struct {
	repo       scheduleRepository
	classTimes classTimeReader
	balances   loadBalanceReader
	cache      scheduleCache
	validator  *validator.Validate
	logger     *zap.Logger
	keyPrefix  string
	cacheTTL   time.Duration
}

// NewScheduleService instantiates ScheduleService. cache may be nil.
func NewScheduleService(repo scheduleRepository, classTimes classTimeReader, balances loadBalanceReader, cache scheduleCache, validate *validator.Validate, logger *zap.Logger, keyPrefix string) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:       repo,
		classTimes: classTimes,
		balances:   balances,
		cache:      cache,
		validator:  validate,
		logger:     logger,
		keyPrefix:  keyPrefix,
		cacheTTL:   10 * time.Minute,
	}
}

// List returns schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.Schedule, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule query")
	}
	filter := models.ScheduleFilter{
		CareerID: query.CareerID,
		YearID:   query.YearID,
		PeriodID: query.PeriodID,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return schedules, pagination, nil
}

// Get returns a schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// ClassTimes returns the class times of a schedule ordered by date and shift.
// The bool reports whether the result came from cache.
func (s *ScheduleService) ClassTimes(ctx context.Context, scheduleID string) ([]models.ClassTimeView, bool, error) {
	key := cache.Key(s.keyPrefix, "schedule", scheduleID, "class-times")
	return readThrough(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) ([]models.ClassTimeView, error) {
		if _, err := s.Get(ctx, scheduleID); err != nil {
			return nil, err
		}
		views, err := s.classTimes.ListViewBySchedule(ctx, scheduleID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class times")
		}
		if views == nil {
			views = []models.ClassTimeView{}
		}
		return views, nil
	})
}

// Balance returns the stored week-major balance vector with the hour load of each week.
func (s *ScheduleService) Balance(ctx context.Context, scheduleID string) (*dto.ScheduleBalanceResponse, error) {
	record, err := s.balances.FindBySchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "balance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load balance")
	}
	var balance [][]int
	if err := record.Balance.Unmarshal(&balance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored balance is malformed")
	}

	loads := make([]int, len(balance))
	for week, row := range balance {
		for _, meetings := range row {
			loads[week] += meetings * timetable.HoursPerMeeting
		}
	}
	return &dto.ScheduleBalanceResponse{ScheduleID: scheduleID, Balance: balance, WeekLoads: loads}, nil
}

// Delete removes a schedule with its class times and balance.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	if s.cache != nil && s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, cache.Key(s.keyPrefix, "schedule", id, "*")); err != nil {
			s.logger.Warn("failed to invalidate schedule cache", zap.String("schedule_id", id), zap.Error(err))
		}
	}
	logger.For(ctx, s.logger).Info("schedule deleted", zap.String("schedule_id", id))
	return nil
}
