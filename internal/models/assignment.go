package models

import "time"

// Assignment records that a teacher teaches a lesson to a class.
type Assignment struct {
	ID        int64     `db:"id" json:"id"`
	TeacherID int64     `db:"teacher_id" json:"teacher_id"`
	LessonID  int64     `db:"lesson_id" json:"lesson_id"`
	ClassID   int64     `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherWorkload aggregates a teacher's assigned weekly hours.
type TeacherWorkload struct {
	TeacherID       int64   `db:"teacher_id" json:"teacher_id"`
	WeeklyHours     float64 `db:"weekly_hours" json:"weekly_hours"`
	AssignmentCount int     `db:"assignment_count" json:"assignment_count"`
}

// LessonPopularity counts how many assignments reference a lesson.
type LessonPopularity struct {
	LessonID int64 `db:"lesson_id" json:"lesson_id"`
	Count    int   `db:"assignment_count" json:"assignment_count"`
}

// LessonTeacher links a lesson name to a teacher who has taught it.
type LessonTeacher struct {
	LessonName string `db:"lesson_name" json:"lesson_name"`
	TeacherID  int64  `db:"teacher_id" json:"teacher_id"`
}
