package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-elective-api/internal/models"
)

// ElectiveStatusRepository persists the per-class elective quota state.
type ElectiveStatusRepository struct {
	db *sqlx.DB
}

// NewElectiveStatusRepository constructs the repository.
func NewElectiveStatusRepository(db *sqlx.DB) *ElectiveStatusRepository {
	return &ElectiveStatusRepository{db: db}
}

const statusDetailSelect = `SELECT s.class_id, s.required_count, s.assigned_count, s.missing_count, s.status, s.last_updated,
       c.grade, c.section, c.school_type
FROM class_elective_status s
JOIN classes c ON c.id = s.class_id`

// Upsert writes the status row for a class.
func (r *ElectiveStatusRepository) Upsert(ctx context.Context, status *models.ElectiveStatus) error {
	const query = `INSERT INTO class_elective_status (class_id, required_count, assigned_count, missing_count, status, last_updated)
VALUES (:class_id, :required_count, :assigned_count, :missing_count, :status, :last_updated)
ON CONFLICT (class_id) DO UPDATE
SET required_count = EXCLUDED.required_count,
    assigned_count = EXCLUDED.assigned_count,
    missing_count = EXCLUDED.missing_count,
    status = EXCLUDED.status,
    last_updated = EXCLUDED.last_updated`
	if _, err := r.db.NamedExecContext(ctx, query, status); err != nil {
		return fmt.Errorf("upsert elective status: %w", err)
	}
	return nil
}

// FindByClass returns the cached status of a class or sql.ErrNoRows when it was never computed.
func (r *ElectiveStatusRepository) FindByClass(ctx context.Context, classID int64) (*models.ElectiveStatusDetail, error) {
	query := statusDetailSelect + `
WHERE s.class_id = $1`
	var detail models.ElectiveStatusDetail
	if err := r.db.GetContext(ctx, &detail, query, classID); err != nil {
		return nil, fmt.Errorf("find elective status: %w", err)
	}
	return &detail, nil
}

// List returns every cached status ordered by grade and section.
func (r *ElectiveStatusRepository) List(ctx context.Context) ([]models.ElectiveStatusDetail, error) {
	query := statusDetailSelect + `
ORDER BY c.grade ASC, c.section ASC`
	var rows []models.ElectiveStatusDetail
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list elective statuses: %w", err)
	}
	return rows, nil
}

// ListByStatus returns cached statuses with the given classification, most missing first.
func (r *ElectiveStatusRepository) ListByStatus(ctx context.Context, kind models.ElectiveStatusKind) ([]models.ElectiveStatusDetail, error) {
	query := statusDetailSelect + `
WHERE s.status = $1
ORDER BY s.missing_count DESC, c.grade ASC, c.section ASC`
	var rows []models.ElectiveStatusDetail
	if err := r.db.SelectContext(ctx, &rows, query, kind); err != nil {
		return nil, fmt.Errorf("list elective statuses by status: %w", err)
	}
	return rows, nil
}

// ListClassIDsByStatus returns the IDs of classes with the given classification.
func (r *ElectiveStatusRepository) ListClassIDsByStatus(ctx context.Context, kind models.ElectiveStatusKind) ([]int64, error) {
	const query = `SELECT class_id FROM class_elective_status WHERE status = $1 ORDER BY class_id`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, kind); err != nil {
		return nil, fmt.Errorf("list class ids by status: %w", err)
	}
	return ids, nil
}

// Statistics aggregates completion counts in a single query.
func (r *ElectiveStatusRepository) Statistics(ctx context.Context) (*models.ElectiveStatistics, error) {
	const query = `SELECT (SELECT COUNT(*) FROM classes) AS total_classes,
       COUNT(*) FILTER (WHERE s.status = 'complete') AS complete_classes,
       COUNT(*) FILTER (WHERE s.status = 'incomplete') AS incomplete_classes,
       COUNT(*) FILTER (WHERE s.status = 'over_assigned') AS over_assigned_classes,
       COALESCE(AVG(s.assigned_count), 0)::float8 AS average_electives
FROM class_elective_status s`
	var stats models.ElectiveStatistics
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("elective statistics: %w", err)
	}
	return &stats, nil
}

// Distribution breaks completion down per grade. Classes without a computed status count towards the total only.
func (r *ElectiveStatusRepository) Distribution(ctx context.Context) ([]models.GradeDistribution, error) {
	const query = `SELECT c.grade,
       COUNT(*) AS total_classes,
       COUNT(*) FILTER (WHERE s.status = 'complete') AS complete_classes,
       COUNT(*) FILTER (WHERE s.status = 'incomplete') AS incomplete_classes,
       COUNT(*) FILTER (WHERE s.status = 'over_assigned') AS over_assigned_classes,
       COALESCE(AVG(s.assigned_count), 0)::float8 AS average_electives
FROM classes c
LEFT JOIN class_elective_status s ON s.class_id = c.id
GROUP BY c.grade
ORDER BY c.grade ASC`
	var rows []models.GradeDistribution
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("elective distribution: %w", err)
	}
	return rows, nil
}
