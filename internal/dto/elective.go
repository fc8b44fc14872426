package dto

import "github.com/noah-isme/sma-elective-api/internal/models"

// GenerateSuggestionsRequest optionally overrides the default scoring criteria.
type GenerateSuggestionsRequest struct {
	models.CriteriaOverrides
}

// ScoreSuggestionRequest scores a single class/lesson/teacher candidate.
type ScoreSuggestionRequest struct {
	ClassID   int64 `json:"class_id" validate:"required,min=1"`
	LessonID  int64 `json:"lesson_id" validate:"required,min=1"`
	TeacherID int64 `json:"teacher_id" validate:"required,min=1"`
	models.CriteriaOverrides
}

// ApplySuggestionResponse reports whether this call claimed the suggestion.
type ApplySuggestionResponse struct {
	SuggestionID int64 `json:"suggestion_id"`
	Applied      bool  `json:"applied"`
}

// CompletionResponse wraps the overall completion percentage.
type CompletionResponse struct {
	CompletionPercentage int `json:"completion_percentage"`
}

// RefreshJobResponse identifies a queued refresh.
type RefreshJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}
