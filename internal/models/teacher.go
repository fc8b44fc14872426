package models

// Teacher represents an instructor record.
type Teacher struct {
	ID      int64   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Subject *string `db:"subject" json:"subject,omitempty"`
}

// SubjectLabel returns the free-text subject or an empty string.
func (t Teacher) SubjectLabel() string {
	if t.Subject == nil {
		return ""
	}
	return *t.Subject
}
