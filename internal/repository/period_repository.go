package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-balancer/internal/models"
)

// PeriodRepository persists periods and their unavailable days and weeks.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// Create inserts a period.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now

	const query = `INSERT INTO periods (id, name, start_date, end_date, created_at, updated_at)
VALUES (:id, :name, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

// FindByID loads a period. sql.ErrNoRows is returned unwrapped.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.Period, error) {
	const query = `SELECT id, name, start_date, end_date, created_at, updated_at FROM periods WHERE id = $1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// AddDayNotAvailable closes one date of the period.
func (r *PeriodRepository) AddDayNotAvailable(ctx context.Context, day *models.DayNotAvailable) error {
	if day.ID == "" {
		day.ID = uuid.NewString()
	}
	if day.CreatedAt.IsZero() {
		day.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO days_not_available (id, period_id, day, reason, created_at)
VALUES (:id, :period_id, :day, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, day); err != nil {
		return fmt.Errorf("create day not available: %w", err)
	}
	return nil
}

// ListDaysNotAvailable returns closed dates ordered by day.
func (r *PeriodRepository) ListDaysNotAvailable(ctx context.Context, periodID string) ([]models.DayNotAvailable, error) {
	const query = `SELECT id, period_id, day, reason, created_at FROM days_not_available WHERE period_id = $1 ORDER BY day ASC`
	var days []models.DayNotAvailable
	if err := r.db.SelectContext(ctx, &days, query, periodID); err != nil {
		return nil, fmt.Errorf("list days not available: %w", err)
	}
	return days, nil
}

// AddWeekNotAvailable closes a range of weeks.
func (r *PeriodRepository) AddWeekNotAvailable(ctx context.Context, week *models.WeekNotAvailable) error {
	if week.ID == "" {
		week.ID = uuid.NewString()
	}
	if week.CreatedAt.IsZero() {
		week.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO weeks_not_available (id, period_id, start_date, end_date, reason, created_at)
VALUES (:id, :period_id, :start_date, :end_date, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, week); err != nil {
		return fmt.Errorf("create week not available: %w", err)
	}
	return nil
}

// ListWeeksNotAvailable returns closed week ranges ordered by start.
func (r *PeriodRepository) ListWeeksNotAvailable(ctx context.Context, periodID string) ([]models.WeekNotAvailable, error) {
	const query = `SELECT id, period_id, start_date, end_date, reason, created_at FROM weeks_not_available WHERE period_id = $1 ORDER BY start_date ASC`
	var weeks []models.WeekNotAvailable
	if err := r.db.SelectContext(ctx, &weeks, query, periodID); err != nil {
		return nil, fmt.Errorf("list weeks not available: %w", err)
	}
	return weeks, nil
}
