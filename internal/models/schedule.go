package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Schedule is a generated timetable for a career year in a period.
type Schedule struct {
	ID        string         `db:"id" json:"id"`
	CareerID  string         `db:"career_id" json:"career_id"`
	YearID    string         `db:"year_id" json:"year_id"`
	PeriodID  string         `db:"period_id" json:"period_id"`
	ClassRoom *string        `db:"class_room" json:"class_room,omitempty"`
	Group     *string        `db:"group_name" json:"group,omitempty"`
	Meta      types.JSONText `db:"meta" json:"meta"`
	CreatedBy *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter narrows schedule listings.
type ScheduleFilter struct {
	CareerID string
	YearID   string
	PeriodID string
	Page     int
	PageSize int
}

// ClassTime is one meeting of a subject on a date and shift number.
// SubjectID is nil when the subject was unknown at save time.
type ClassTime struct {
	ID         string    `db:"id" json:"id"`
	ScheduleID string    `db:"schedule_id" json:"schedule_id"`
	SubjectID  *string   `db:"subject_id" json:"subject_id,omitempty"`
	TeacherID  *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	Day        time.Time `db:"day" json:"day"`
	Number     int       `db:"number" json:"number"`
	Week       int       `db:"week" json:"week"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	// ActivityIDs are stored in class_time_activities.
	ActivityIDs []string `db:"-" json:"activity_ids,omitempty"`
}

// ClassTimeView joins a class time with subject, teacher and activity names for reads and exports.
type ClassTimeView struct {
	ID               string    `db:"id" json:"id"`
	Day              time.Time `db:"day" json:"day"`
	Number           int       `db:"number" json:"number"`
	Week             int       `db:"week" json:"week"`
	SubjectID        string    `db:"subject_id" json:"subject_id"`
	SubjectName      string    `db:"subject_name" json:"subject_name"`
	SubjectSymbology string    `db:"subject_symbology" json:"subject_symbology"`
	TeacherName      *string   `db:"teacher_name" json:"teacher_name,omitempty"`
	Activities       []string  `db:"-" json:"activities,omitempty"`
}

// ClassTimeActivity is one row of class_time_activities joined with the activity symbology.
type ClassTimeActivity struct {
	ClassTimeID string `db:"class_time_id"`
	Symbology   string `db:"symbology"`
}

// LoadBalance stores the balanced meetings matrix in week-major order.
type LoadBalance struct {
	ID         string         `db:"id" json:"id"`
	ScheduleID string         `db:"schedule_id" json:"schedule_id"`
	Balance    types.JSONText `db:"balance" json:"balance"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
