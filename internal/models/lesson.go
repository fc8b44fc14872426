package models

// Lesson is a curriculum entry offered to classes of one grade and school type.
type Lesson struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Grade       int    `db:"grade" json:"grade"`
	WeeklyHours int    `db:"weekly_hours" json:"weekly_hours"`
	IsMandatory bool   `db:"is_mandatory" json:"is_mandatory"`
	SchoolType  string `db:"school_type" json:"school_type"`
}
