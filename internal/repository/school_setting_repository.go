package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SchoolSettingRepository reads per-school-type policy values.
type SchoolSettingRepository struct {
	db *sqlx.DB
}

// NewSchoolSettingRepository constructs the repository.
func NewSchoolSettingRepository(db *sqlx.DB) *SchoolSettingRepository {
	return &SchoolSettingRepository{db: db}
}

// WeeklyHourLimit returns the configured weekly teaching-hour limit or sql.ErrNoRows.
func (r *SchoolSettingRepository) WeeklyHourLimit(ctx context.Context, schoolType string) (float64, error) {
	const query = `SELECT weekly_hour_limit FROM school_settings WHERE school_type = $1`
	var limit float64
	if err := r.db.GetContext(ctx, &limit, query, schoolType); err != nil {
		return 0, fmt.Errorf("weekly hour limit for %s: %w", schoolType, err)
	}
	return limit, nil
}
