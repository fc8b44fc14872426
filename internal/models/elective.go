package models

import "time"

// DefaultRequiredElectives is the elective quota used when no configuration overrides it.
const DefaultRequiredElectives = 3

// ElectiveStatusKind classifies a class against its elective quota.
type ElectiveStatusKind string

const (
	ElectiveComplete     ElectiveStatusKind = "complete"
	ElectiveIncomplete   ElectiveStatusKind = "incomplete"
	ElectiveOverAssigned ElectiveStatusKind = "over_assigned"
)

// ElectiveSeverity grades how far an incomplete class is from its quota.
type ElectiveSeverity string

const (
	SeverityNone     ElectiveSeverity = ""
	SeverityWarning  ElectiveSeverity = "warning"
	SeverityCritical ElectiveSeverity = "critical"
)

// ElectiveStatus is the materialised quota state of one class.
type ElectiveStatus struct {
	ClassID       int64              `db:"class_id" json:"class_id"`
	RequiredCount int                `db:"required_count" json:"required_count"`
	AssignedCount int                `db:"assigned_count" json:"assigned_count"`
	MissingCount  int                `db:"missing_count" json:"missing_count"`
	Status        ElectiveStatusKind `db:"status" json:"status"`
	LastUpdated   time.Time          `db:"last_updated" json:"last_updated"`
}

// ClassifyElectives derives the missing count and classification for a class.
func ClassifyElectives(assigned, required int) (int, ElectiveStatusKind) {
	missing := required - assigned
	if missing < 0 {
		missing = 0
	}
	switch {
	case assigned == required:
		return missing, ElectiveComplete
	case assigned < required:
		return missing, ElectiveIncomplete
	default:
		return missing, ElectiveOverAssigned
	}
}

// NewElectiveStatus builds a status row for the given counts.
func NewElectiveStatus(classID int64, assigned, required int, at time.Time) ElectiveStatus {
	missing, kind := ClassifyElectives(assigned, required)
	return ElectiveStatus{
		ClassID:       classID,
		RequiredCount: required,
		AssignedCount: assigned,
		MissingCount:  missing,
		Status:        kind,
		LastUpdated:   at,
	}
}

// Severity maps an incomplete status to the alert level it should raise.
func (s ElectiveStatus) Severity() ElectiveSeverity {
	if s.Status != ElectiveIncomplete || s.MissingCount <= 0 {
		return SeverityNone
	}
	if s.MissingCount >= 2 {
		return SeverityCritical
	}
	return SeverityWarning
}

// ElectiveStatusDetail joins a status row with the class for display.
type ElectiveStatusDetail struct {
	ElectiveStatus
	Grade      int              `db:"grade" json:"grade"`
	Section    string           `db:"section" json:"section"`
	SchoolType string           `db:"school_type" json:"school_type"`
	Severity   ElectiveSeverity `db:"-" json:"severity,omitempty"`
}

// IncompleteClass lists an incomplete class together with the electives it already has.
type IncompleteClass struct {
	ElectiveStatusDetail
	AssignedElectives []string `json:"assigned_electives"`
}

// ElectiveStatistics summarises quota completion across all classes.
type ElectiveStatistics struct {
	TotalClasses         int     `db:"total_classes" json:"total_classes"`
	CompleteClasses      int     `db:"complete_classes" json:"complete_classes"`
	IncompleteClasses    int     `db:"incomplete_classes" json:"incomplete_classes"`
	OverAssignedClasses  int     `db:"over_assigned_classes" json:"over_assigned_classes"`
	AverageElectives     float64 `db:"average_electives" json:"average_electives"`
	CompletionPercentage int     `db:"-" json:"completion_percentage"`
}

// GradeDistribution breaks elective completion down for one grade.
type GradeDistribution struct {
	Grade            int     `db:"grade" json:"grade"`
	TotalClasses     int     `db:"total_classes" json:"total_classes"`
	Complete         int     `db:"complete_classes" json:"complete"`
	Incomplete       int     `db:"incomplete_classes" json:"incomplete"`
	OverAssigned     int     `db:"over_assigned_classes" json:"over_assigned"`
	AverageElectives float64 `db:"average_electives" json:"average_electives"`
}

// RefreshSummary reports the outcome of a bulk refresh.
type RefreshSummary struct {
	Processed   int           `json:"processed"`
	Failed      int           `json:"failed"`
	Suggestions int           `json:"suggestions,omitempty"`
	FailedIDs   []int64       `json:"failed_ids,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}
