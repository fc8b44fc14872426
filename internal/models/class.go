package models

import "fmt"

// Class represents a teaching group within a school type.
type Class struct {
	ID         int64  `db:"id" json:"id"`
	Grade      int    `db:"grade" json:"grade"`
	Section    string `db:"section" json:"section"`
	SchoolType string `db:"school_type" json:"school_type"`
}

// DisplayName renders the class as grade-section, e.g. "5-A".
func (c Class) DisplayName() string {
	return fmt.Sprintf("%d-%s", c.Grade, c.Section)
}
