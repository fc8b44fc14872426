package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-elective-api/internal/models"
)

// SuggestionRepository persists the elective suggestion cache.
type SuggestionRepository struct {
	db *sqlx.DB
}

// NewSuggestionRepository constructs the repository.
func NewSuggestionRepository(db *sqlx.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

const suggestionColumns = `id, class_id, lesson_id, teacher_id, score, rationale, is_applied, created_at, updated_at`

// DeleteUnapplied clears every unapplied suggestion.
func (r *SuggestionRepository) DeleteUnapplied(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM elective_suggestions WHERE is_applied = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("delete unapplied suggestions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted suggestions: %w", err)
	}
	return affected, nil
}

// DeleteUnappliedByClass clears the unapplied suggestions of one class.
func (r *SuggestionRepository) DeleteUnappliedByClass(ctx context.Context, classID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM elective_suggestions WHERE class_id = $1 AND is_applied = FALSE`, classID)
	if err != nil {
		return 0, fmt.Errorf("delete class suggestions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted suggestions: %w", err)
	}
	return affected, nil
}

// Upsert stores a suggestion keyed by (class, lesson, teacher). Applied rows are never overwritten;
// in that case the method returns false and leaves the suggestion untouched.
func (r *SuggestionRepository) Upsert(ctx context.Context, suggestion *models.Suggestion) (bool, error) {
	now := time.Now().UTC()
	const query = `INSERT INTO elective_suggestions (class_id, lesson_id, teacher_id, score, rationale, is_applied, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6, $6)
ON CONFLICT (class_id, lesson_id, teacher_id) DO UPDATE
SET score = EXCLUDED.score,
    rationale = EXCLUDED.rationale,
    updated_at = EXCLUDED.updated_at
WHERE elective_suggestions.is_applied = FALSE
RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query,
		suggestion.ClassID, suggestion.LessonID, suggestion.TeacherID,
		suggestion.Score, suggestion.Rationale, now)
	if err := row.Scan(&suggestion.ID, &suggestion.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("upsert suggestion: %w", err)
	}
	suggestion.IsApplied = false
	suggestion.UpdatedAt = now
	return true, nil
}

// ListByClass returns cached suggestions for a class, best score first.
func (r *SuggestionRepository) ListByClass(ctx context.Context, classID int64, includeApplied bool) ([]models.SuggestionDetail, error) {
	const query = `SELECT es.id, es.class_id, es.lesson_id, es.teacher_id, es.score, es.rationale, es.is_applied,
       es.created_at, es.updated_at, l.name AS lesson_name, t.name AS teacher_name
FROM elective_suggestions es
JOIN lessons l ON l.id = es.lesson_id
JOIN teachers t ON t.id = es.teacher_id
WHERE es.class_id = $1 AND ($2 OR es.is_applied = FALSE)
ORDER BY es.score DESC, es.lesson_id ASC, es.teacher_id ASC`
	var rows []models.SuggestionDetail
	if err := r.db.SelectContext(ctx, &rows, query, classID, includeApplied); err != nil {
		return nil, fmt.Errorf("list class suggestions: %w", err)
	}
	return rows, nil
}

// MarkApplied atomically flips the applied flag. It returns sql.ErrNoRows when the suggestion
// does not exist or was already applied, so at most one caller ever claims a suggestion.
func (r *SuggestionRepository) MarkApplied(ctx context.Context, exec sqlx.ExtContext, id int64, at time.Time) (*models.Suggestion, error) {
	if exec == nil {
		exec = r.db
	}
	query := `UPDATE elective_suggestions
SET is_applied = TRUE, updated_at = $2
WHERE id = $1 AND is_applied = FALSE
RETURNING ` + suggestionColumns
	var suggestion models.Suggestion
	if err := sqlx.GetContext(ctx, exec, &suggestion, query, id, at); err != nil {
		return nil, fmt.Errorf("mark suggestion applied: %w", err)
	}
	return &suggestion, nil
}
