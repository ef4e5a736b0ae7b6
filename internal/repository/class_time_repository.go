package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-balancer/internal/models"
)

// ClassTimeRepository stores the placed meetings of a schedule.
type ClassTimeRepository struct {
	db *sqlx.DB
}

// NewClassTimeRepository builds repository.
func NewClassTimeRepository(db *sqlx.DB) *ClassTimeRepository {
	return &ClassTimeRepository{db: db}
}

func (r *ClassTimeRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch inserts class times and their activity links.
func (r *ClassTimeRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, classTimes []models.ClassTime) error {
	if len(classTimes) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO class_times (id, schedule_id, subject_id, teacher_id, day, number, week, created_at)
VALUES (:id, :schedule_id, :subject_id, :teacher_id, :day, :number, :week, :created_at)`
	const activityQuery = `INSERT INTO class_time_activities (class_time_id, activity_id) VALUES ($1, $2)`

	for i := range classTimes {
		ct := &classTimes[i]
		if ct.ID == "" {
			ct.ID = uuid.NewString()
		}
		if ct.CreatedAt.IsZero() {
			ct.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, ct); err != nil {
			return fmt.Errorf("insert class time: %w", err)
		}
		for _, activityID := range ct.ActivityIDs {
			if _, err := target.ExecContext(ctx, activityQuery, ct.ID, activityID); err != nil {
				return fmt.Errorf("link class time activity: %w", err)
			}
		}
	}
	return nil
}

// ListViewBySchedule returns class times ordered by day and number, with activity symbologies attached.
// Class times saved without a subject carry empty subject fields.
func (r *ClassTimeRepository) ListViewBySchedule(ctx context.Context, scheduleID string) ([]models.ClassTimeView, error) {
	const query = `SELECT ct.id, ct.day, ct.number, ct.week, COALESCE(ct.subject_id::text, '') AS subject_id,
       COALESCE(s.name, '') AS subject_name, COALESCE(s.symbology, '') AS subject_symbology, t.name AS teacher_name
FROM class_times ct
LEFT JOIN subjects s ON s.id = ct.subject_id
LEFT JOIN teachers t ON t.id = ct.teacher_id
WHERE ct.schedule_id = $1
ORDER BY ct.day ASC, ct.number ASC`
	var views []models.ClassTimeView
	if err := r.db.SelectContext(ctx, &views, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list class times: %w", err)
	}
	if len(views) == 0 {
		return views, nil
	}

	const activityQuery = `SELECT cta.class_time_id, a.symbology
FROM class_time_activities cta
JOIN activities a ON a.id = cta.activity_id
JOIN class_times ct ON ct.id = cta.class_time_id
WHERE ct.schedule_id = $1
ORDER BY cta.class_time_id, a.symbology`
	var links []models.ClassTimeActivity
	if err := r.db.SelectContext(ctx, &links, activityQuery, scheduleID); err != nil {
		return nil, fmt.Errorf("list class time activities: %w", err)
	}

	byClassTime := make(map[string][]string, len(links))
	for _, link := range links {
		byClassTime[link.ClassTimeID] = append(byClassTime[link.ClassTimeID], link.Symbology)
	}
	for i := range views {
		views[i].Activities = byClassTime[views[i].ID]
	}
	return views, nil
}
