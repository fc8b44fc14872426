package models

import (
	"strings"
	"time"
)

// DefaultSuggestionLimit caps the number of suggestions returned per class.
const DefaultSuggestionLimit = 10

// SuggestionCriteria toggles the scoring factors applied to candidates.
type SuggestionCriteria struct {
	PreferLowWorkload bool `json:"prefer_low_workload"`
	PreferPopular     bool `json:"prefer_popular"`
	AvoidConflicts    bool `json:"avoid_conflicts"`
	Limit             int  `json:"limit"`
}

// DefaultSuggestionCriteria enables every factor with the default result cap.
func DefaultSuggestionCriteria() SuggestionCriteria {
	return SuggestionCriteria{
		PreferLowWorkload: true,
		PreferPopular:     true,
		AvoidConflicts:    true,
		Limit:             DefaultSuggestionLimit,
	}
}

// CriteriaOverrides carries caller-supplied criteria; nil fields keep the base value.
type CriteriaOverrides struct {
	PreferLowWorkload *bool `json:"prefer_low_workload,omitempty"`
	PreferPopular     *bool `json:"prefer_popular,omitempty"`
	AvoidConflicts    *bool `json:"avoid_conflicts,omitempty"`
	Limit             *int  `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// Merge returns a copy of c with the non-nil overrides applied field by field.
func (c SuggestionCriteria) Merge(o *CriteriaOverrides) SuggestionCriteria {
	if o == nil {
		return c
	}
	if o.PreferLowWorkload != nil {
		c.PreferLowWorkload = *o.PreferLowWorkload
	}
	if o.PreferPopular != nil {
		c.PreferPopular = *o.PreferPopular
	}
	if o.AvoidConflicts != nil {
		c.AvoidConflicts = *o.AvoidConflicts
	}
	if o.Limit != nil && *o.Limit > 0 {
		c.Limit = *o.Limit
	}
	return c
}

// Suggestion is a cached, scored candidate assignment.
type Suggestion struct {
	ID        int64     `db:"id" json:"id"`
	ClassID   int64     `db:"class_id" json:"class_id"`
	LessonID  int64     `db:"lesson_id" json:"lesson_id"`
	TeacherID int64     `db:"teacher_id" json:"teacher_id"`
	Score     float64   `db:"score" json:"score"`
	Rationale string    `db:"rationale" json:"rationale"`
	IsApplied bool      `db:"is_applied" json:"applied"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SuggestionDetail enriches a suggestion with display names and, when freshly scored, its factors.
type SuggestionDetail struct {
	Suggestion
	LessonName  string        `db:"lesson_name" json:"lesson_name"`
	TeacherName string        `db:"teacher_name" json:"teacher_name"`
	Factors     *ScoreFactors `db:"-" json:"factors,omitempty"`
}

// ScoreFactors are the raw inputs that produced a score.
type ScoreFactors struct {
	WorkloadPercent    float64 `json:"workload_percent"`
	PopularityPercent  float64 `json:"popularity_percent"`
	HasConflict        bool    `json:"has_conflict"`
	SubjectMatch       bool    `json:"subject_match"`
	TeacherAssignments int     `json:"teacher_assignments"`
}

// ScoreBreakdown is the result of scoring a single (class, lesson, teacher) triple.
type ScoreBreakdown struct {
	ClassID   int64              `json:"class_id"`
	LessonID  int64              `json:"lesson_id"`
	TeacherID int64              `json:"teacher_id"`
	Score     float64            `json:"score"`
	Rationale string             `json:"rationale"`
	Factors   ScoreFactors       `json:"factors"`
	Criteria  SuggestionCriteria `json:"criteria"`
}

// SubjectMatches reports whether a teacher subject label and a lesson name are
// related: either contains the other, ignoring case. Labels are compared as stored,
// whitespace included. An empty label never matches.
func SubjectMatches(subject, lessonName string) bool {
	s := strings.ToLower(subject)
	l := strings.ToLower(lessonName)
	if s == "" || l == "" {
		return false
	}
	return strings.Contains(l, s) || strings.Contains(s, l)
}
