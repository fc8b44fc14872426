package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-elective-api/internal/models"
)

// ScheduleSlotRepository reads weekly schedule placements.
type ScheduleSlotRepository struct {
	db *sqlx.DB
}

// NewScheduleSlotRepository constructs the repository.
func NewScheduleSlotRepository(db *sqlx.DB) *ScheduleSlotRepository {
	return &ScheduleSlotRepository{db: db}
}

const slotColumns = `id, day_of_week, period, class_id, teacher_id, lesson_id`

// ListByClass returns slots occupied by a class.
func (r *ScheduleSlotRepository) ListByClass(ctx context.Context, classID int64) ([]models.ScheduleSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE class_id = $1 ORDER BY day_of_week, period`
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, classID); err != nil {
		return nil, fmt.Errorf("list class slots: %w", err)
	}
	return slots, nil
}

// ListByTeacher returns slots occupied by a teacher.
func (r *ScheduleSlotRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]models.ScheduleSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE teacher_id = $1 ORDER BY day_of_week, period`
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher slots: %w", err)
	}
	return slots, nil
}

// ListByTeachers returns slots for a set of teachers in a single round-trip.
func (r *ScheduleSlotRepository) ListByTeachers(ctx context.Context, teacherIDs []int64) ([]models.ScheduleSlot, error) {
	if len(teacherIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE teacher_id = ANY($1) ORDER BY teacher_id, day_of_week, period`
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, pq.Array(teacherIDs)); err != nil {
		return nil, fmt.Errorf("list slots for teachers: %w", err)
	}
	return slots, nil
}
