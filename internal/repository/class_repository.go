package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-elective-api/internal/models"
)

// ClassRepository reads classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns the class or sql.ErrNoRows.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	const query = `SELECT id, grade, section, school_type FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, fmt.Errorf("find class %d: %w", id, err)
	}
	return &class, nil
}

// ListIDs returns every class ID ordered by grade and section.
func (r *ClassRepository) ListIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT id FROM classes ORDER BY grade ASC, section ASC`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list class ids: %w", err)
	}
	return ids, nil
}

// CountBySchoolType counts classes within one school type.
func (r *ClassRepository) CountBySchoolType(ctx context.Context, schoolType string) (int, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE school_type = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, schoolType); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return count, nil
}
