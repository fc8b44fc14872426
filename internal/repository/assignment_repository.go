package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-elective-api/internal/models"
)

// AssignmentRepository persists teacher-lesson-class assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListLessonIDsByClass returns the distinct lesson IDs already assigned to a class.
func (r *AssignmentRepository) ListLessonIDsByClass(ctx context.Context, classID int64) ([]int64, error) {
	const query = `SELECT DISTINCT lesson_id FROM teacher_assignments WHERE class_id = $1 ORDER BY lesson_id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, classID); err != nil {
		return nil, fmt.Errorf("list assigned lessons: %w", err)
	}
	return ids, nil
}

// CountElectivesByClass counts the distinct non-mandatory lessons assigned to a class.
func (r *AssignmentRepository) CountElectivesByClass(ctx context.Context, classID int64) (int, error) {
	const query = `SELECT COUNT(DISTINCT ta.lesson_id)
FROM teacher_assignments ta
JOIN lessons l ON l.id = ta.lesson_id
WHERE ta.class_id = $1 AND l.is_mandatory = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count class electives: %w", err)
	}
	return count, nil
}

// ListElectiveNamesByClass returns the names of electives assigned to a class.
func (r *AssignmentRepository) ListElectiveNamesByClass(ctx context.Context, classID int64) ([]string, error) {
	const query = `SELECT DISTINCT l.name
FROM teacher_assignments ta
JOIN lessons l ON l.id = ta.lesson_id
WHERE ta.class_id = $1 AND l.is_mandatory = FALSE
ORDER BY l.name`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, classID); err != nil {
		return nil, fmt.Errorf("list class elective names: %w", err)
	}
	return names, nil
}

// Create inserts an assignment using the provided executor so callers can run it inside a transaction.
func (r *AssignmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.Assignment) error {
	if exec == nil {
		exec = r.db
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teacher_assignments (teacher_id, lesson_id, class_id, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	row := exec.QueryRowxContext(ctx, query, assignment.TeacherID, assignment.LessonID, assignment.ClassID, assignment.CreatedAt)
	if err := row.Scan(&assignment.ID); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Workloads aggregates weekly hours and assignment counts for every teacher with at least one assignment.
func (r *AssignmentRepository) Workloads(ctx context.Context) ([]models.TeacherWorkload, error) {
	const query = `SELECT ta.teacher_id,
       COALESCE(SUM(l.weekly_hours), 0)::float8 AS weekly_hours,
       COUNT(*) AS assignment_count
FROM teacher_assignments ta
JOIN lessons l ON l.id = ta.lesson_id
GROUP BY ta.teacher_id`
	var rows []models.TeacherWorkload
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("aggregate teacher workloads: %w", err)
	}
	return rows, nil
}

// WorkloadForTeacher aggregates a single teacher's workload; teachers without assignments report zero.
func (r *AssignmentRepository) WorkloadForTeacher(ctx context.Context, teacherID int64) (*models.TeacherWorkload, error) {
	const query = `SELECT $1::bigint AS teacher_id,
       COALESCE(SUM(l.weekly_hours), 0)::float8 AS weekly_hours,
       COUNT(ta.id) AS assignment_count
FROM teacher_assignments ta
JOIN lessons l ON l.id = ta.lesson_id
WHERE ta.teacher_id = $1`
	var workload models.TeacherWorkload
	if err := r.db.GetContext(ctx, &workload, query, teacherID); err != nil {
		return nil, fmt.Errorf("teacher workload: %w", err)
	}
	return &workload, nil
}

// CountByLessons returns assignment counts for the given lessons; lessons without assignments are omitted.
func (r *AssignmentRepository) CountByLessons(ctx context.Context, lessonIDs []int64) ([]models.LessonPopularity, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT lesson_id, COUNT(*) AS assignment_count
FROM teacher_assignments
WHERE lesson_id = ANY($1)
GROUP BY lesson_id`
	var rows []models.LessonPopularity
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(lessonIDs)); err != nil {
		return nil, fmt.Errorf("count lesson assignments: %w", err)
	}
	return rows, nil
}

// CountByLesson returns how many assignments reference a lesson.
func (r *AssignmentRepository) CountByLesson(ctx context.Context, lessonID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM teacher_assignments WHERE lesson_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, lessonID); err != nil {
		return 0, fmt.Errorf("count lesson assignments: %w", err)
	}
	return count, nil
}

// TeachersByLessonNames lists teachers who have taught a lesson with one of the given names to any class.
func (r *AssignmentRepository) TeachersByLessonNames(ctx context.Context, names []string) ([]models.LessonTeacher, error) {
	if len(names) == 0 {
		return nil, nil
	}
	const query = `SELECT DISTINCT l.name AS lesson_name, ta.teacher_id
FROM teacher_assignments ta
JOIN lessons l ON l.id = ta.lesson_id
WHERE l.name = ANY($1)`
	var rows []models.LessonTeacher
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("list previous lesson teachers: %w", err)
	}
	return rows, nil
}
