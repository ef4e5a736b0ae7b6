package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-balancer/internal/models"
)

// ActivityRepository reads the activity catalogue.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// MapBySymbology returns the activities whose symbology is listed, keyed by symbology.
func (r *ActivityRepository) MapBySymbology(ctx context.Context, symbologies []string) (map[string]models.Activity, error) {
	result := make(map[string]models.Activity, len(symbologies))
	if len(symbologies) == 0 {
		return result, nil
	}
	const query = `SELECT id, name, symbology FROM activities WHERE symbology = ANY($1)`
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, pq.Array(symbologies)); err != nil {
		return nil, fmt.Errorf("list activities by symbology: %w", err)
	}
	for _, a := range activities {
		result[a.Symbology] = a
	}
	return result, nil
}
