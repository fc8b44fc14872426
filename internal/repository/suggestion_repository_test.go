package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-elective-api/internal/models"
)

var suggestionRowColumns = []string{"id", "class_id", "lesson_id", "teacher_id", "score", "rationale", "is_applied", "created_at", "updated_at"}

func TestSuggestionRepositoryDeletes(t *testing.T) {
	db, mock, cleanup := newElectiveMock(t)
	defer cleanup()
	repo := NewSuggestionRepository(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM elective_suggestions WHERE is_applied = FALSE").
		WillReturnResult(sqlmock.NewResult(0, 4))
	deleted, err := repo.DeleteUnapplied(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	mock.ExpectExec("DELETE FROM elective_suggestions WHERE class_id = \\$1 AND is_applied = FALSE").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	deleted, err = repo.DeleteUnappliedByClass(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newElectiveMock(t)
	defer cleanup()
	repo := NewSuggestionRepository(db)
	ctx := context.Background()
	created := time.Now().UTC().Add(-time.Hour)

	mock.ExpectQuery("(?s)INSERT INTO elective_suggestions.*ON CONFLICT \\(class_id, lesson_id, teacher_id\\) DO UPDATE.*WHERE elective_suggestions.is_applied = FALSE\\s+RETURNING id, created_at").
		WithArgs(int64(1), int64(13), int64(103), 75.0, "ok", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, created))

	suggestion := &models.Suggestion{ClassID: 1, LessonID: 13, TeacherID: 103, Score: 75, Rationale: "ok"}
	stored, err := repo.Upsert(ctx, suggestion)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, int64(9), suggestion.ID)
	assert.Equal(t, created, suggestion.CreatedAt)

	mock.ExpectQuery("INSERT INTO elective_suggestions").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	stored, err = repo.Upsert(ctx, &models.Suggestion{ClassID: 1, LessonID: 11, TeacherID: 100, Score: 10})
	require.NoError(t, err)
	assert.False(t, stored)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newElectiveMock(t)
	defer cleanup()
	repo := NewSuggestionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	columns := append(append([]string{}, suggestionRowColumns...), "lesson_name", "teacher_name")
	mock.ExpectQuery("(?s)FROM elective_suggestions es\\s+JOIN lessons l.*WHERE es.class_id = \\$1 AND \\(\\$2 OR es.is_applied = FALSE\\)").
		WithArgs(int64(1), false).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(9, 1, 13, 103, 75.0, "ok", false, now, now, "Robotika", "Dedi"))

	rows, err := repo.ListByClass(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dedi", rows[0].TeacherName)
	assert.Equal(t, 75.0, rows[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSuggestionRepositoryMarkAppliedIsGuarded(t *testing.T) {
	db, mock, cleanup := newElectiveMock(t)
	defer cleanup()
	repo := NewSuggestionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectQuery("UPDATE elective_suggestions\\s+SET is_applied = TRUE, updated_at = \\$2\\s+WHERE id = \\$1 AND is_applied = FALSE").
		WithArgs(int64(9), now).
		WillReturnRows(sqlmock.NewRows(suggestionRowColumns).AddRow(9, 1, 13, 103, 75.0, "ok", true, now, now))

	applied, err := repo.MarkApplied(ctx, nil, 9, now)
	require.NoError(t, err)
	assert.True(t, applied.IsApplied)
	assert.Equal(t, int64(103), applied.TeacherID)

	mock.ExpectQuery("UPDATE elective_suggestions").
		WithArgs(int64(9), now).
		WillReturnRows(sqlmock.NewRows(suggestionRowColumns))

	_, err = repo.MarkApplied(ctx, nil, 9, now)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
