package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-elective-api/internal/models"
)

// LessonRepository reads the lesson catalog.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs the repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = `id, name, grade, weekly_hours, is_mandatory, school_type`

// FindByID returns the lesson or sql.ErrNoRows.
func (r *LessonRepository) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, fmt.Errorf("find lesson %d: %w", id, err)
	}
	return &lesson, nil
}

// ListElectives returns the non-mandatory lessons of a grade and school type.
func (r *LessonRepository) ListElectives(ctx context.Context, grade int, schoolType string) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons
WHERE grade = $1 AND school_type = $2 AND is_mandatory = FALSE
ORDER BY id ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, grade, schoolType); err != nil {
		return nil, fmt.Errorf("list elective lessons: %w", err)
	}
	return lessons, nil
}
