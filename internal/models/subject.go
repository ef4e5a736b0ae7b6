package models

import "time"

// Subject is a course taught in a career year; Symbology is its short code.
type Subject struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Symbology  string    `db:"symbology" json:"symbology"`
	CareerID   string    `db:"career_id" json:"career_id"`
	YearID     string    `db:"year_id" json:"year_id"`
	HoursFound int       `db:"hours_found" json:"hours_found"`
	Type       string    `db:"type" json:"type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Teacher teaches one or more subjects.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubjectTeacher links a subject to the teacher assigned first to it.
type SubjectTeacher struct {
	SubjectID string `db:"subject_id"`
	TeacherID string `db:"teacher_id"`
}

// Activity is a tag such as an exam or lab attached to class times by symbology.
type Activity struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Symbology string `db:"symbology" json:"symbology"`
}
