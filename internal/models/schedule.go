package models

// ScheduleSlot is a weekly placement of a class with a teacher.
type ScheduleSlot struct {
	ID        int64  `db:"id" json:"id"`
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	Period    int    `db:"period" json:"period"`
	ClassID   int64  `db:"class_id" json:"class_id"`
	TeacherID int64  `db:"teacher_id" json:"teacher_id"`
	LessonID  *int64 `db:"lesson_id" json:"lesson_id,omitempty"`
}

// SlotKey identifies a (day, period) cell of the weekly grid.
type SlotKey struct {
	Day    int
	Period int
}

// Key returns the slot's grid cell.
func (s ScheduleSlot) Key() SlotKey {
	return SlotKey{Day: s.DayOfWeek, Period: s.Period}
}

// SlotSet is a set of occupied grid cells.
type SlotSet map[SlotKey]struct{}

// NewSlotSet builds a set from slots.
func NewSlotSet(slots []ScheduleSlot) SlotSet {
	set := make(SlotSet, len(slots))
	for _, slot := range slots {
		set[slot.Key()] = struct{}{}
	}
	return set
}

// Intersects reports whether both sets share at least one cell.
func (s SlotSet) Intersects(other SlotSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for key := range small {
		if _, ok := large[key]; ok {
			return true
		}
	}
	return false
}
