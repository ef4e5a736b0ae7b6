package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/timetable-balancer/internal/models"
)

// SubjectRepository reads subjects and their teacher assignments.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListByIDs returns the subjects with the given ids in no particular order.
func (r *SubjectRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, symbology, career_id, year_id, hours_found, type, created_at
FROM subjects WHERE id = ANY($1)`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list subjects by ids: %w", err)
	}
	return subjects, nil
}

// PrimaryTeachers maps each subject id to the first teacher assigned to it.
// Subjects without a teacher are absent from the map.
func (r *SubjectRepository) PrimaryTeachers(ctx context.Context, subjectIDs []string) (map[string]string, error) {
	result := make(map[string]string, len(subjectIDs))
	if len(subjectIDs) == 0 {
		return result, nil
	}
	const query = `SELECT DISTINCT ON (subject_id) subject_id, teacher_id
FROM subject_teachers WHERE subject_id = ANY($1) ORDER BY subject_id, created_at ASC, teacher_id ASC`
	var links []models.SubjectTeacher
	if err := r.db.SelectContext(ctx, &links, query, pq.Array(subjectIDs)); err != nil {
		return nil, fmt.Errorf("list subject teachers: %w", err)
	}
	for _, link := range links {
		result[link.SubjectID] = link.TeacherID
	}
	return result, nil
}
