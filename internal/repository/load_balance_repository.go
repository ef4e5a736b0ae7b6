package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-balancer/internal/models"
)

// LoadBalanceRepository stores the balanced matrix of a schedule.
type LoadBalanceRepository struct {
	db *sqlx.DB
}

// NewLoadBalanceRepository constructs the repository.
func NewLoadBalanceRepository(db *sqlx.DB) *LoadBalanceRepository {
	return &LoadBalanceRepository{db: db}
}

func (r *LoadBalanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a load balance row.
func (r *LoadBalanceRepository) Create(ctx context.Context, exec sqlx.ExtContext, balance *models.LoadBalance) error {
	if balance.ID == "" {
		balance.ID = uuid.NewString()
	}
	if balance.CreatedAt.IsZero() {
		balance.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO load_balances (id, schedule_id, balance, created_at) VALUES (:id, :schedule_id, :balance, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, balance); err != nil {
		return fmt.Errorf("insert load balance: %w", err)
	}
	return nil
}

// FindBySchedule returns the latest balance of a schedule. sql.ErrNoRows is returned unwrapped.
func (r *LoadBalanceRepository) FindBySchedule(ctx context.Context, scheduleID string) (*models.LoadBalance, error) {
	const query = `SELECT id, schedule_id, balance, created_at FROM load_balances WHERE schedule_id = $1 ORDER BY created_at DESC LIMIT 1`
	var balance models.LoadBalance
	if err := r.db.GetContext(ctx, &balance, query, scheduleID); err != nil {
		return nil, err
	}
	return &balance, nil
}
