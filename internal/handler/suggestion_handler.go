package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-elective-api/internal/dto"
	"github.com/noah-isme/sma-elective-api/internal/models"
	appErrors "github.com/noah-isme/sma-elective-api/pkg/errors"
	"github.com/noah-isme/sma-elective-api/pkg/jobs"
	"github.com/noah-isme/sma-elective-api/pkg/response"
)

const (
	// RefreshJobType tags queued suggestion cache refreshes.
	RefreshJobType = "suggestions.refresh"
	// RefreshJobKey coalesces refresh requests so only one pass is pending at a time.
	RefreshJobKey = "suggestions-refresh"
)

type suggestionService interface {
	Criteria(overrides *models.CriteriaOverrides) models.SuggestionCriteria
	Generate(ctx context.Context, classID int64, overrides *models.CriteriaOverrides) ([]models.SuggestionDetail, error)
	ListCached(ctx context.Context, classID int64, includeApplied bool) ([]models.SuggestionDetail, error)
	Score(ctx context.Context, classID, lessonID, teacherID int64, overrides *models.CriteriaOverrides) (*models.ScoreBreakdown, error)
	Apply(ctx context.Context, suggestionID int64) (bool, error)
	RefreshCache(ctx context.Context) (*models.RefreshSummary, error)
}

type suggestionRefresher interface {
	RefreshCache(ctx context.Context) (*models.RefreshSummary, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

// SuggestionHandler exposes the elective recommendation endpoints.
type SuggestionHandler struct {
	service   suggestionService
	queue     jobEnqueuer
	validator *validator.Validate
}

// NewSuggestionHandler constructs the handler. queue may be nil, in which case refreshes always run inline.
func NewSuggestionHandler(svc suggestionService, queue jobEnqueuer, validate *validator.Validate) *SuggestionHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &SuggestionHandler{service: svc, queue: queue, validator: validate}
}

// Generate godoc
// @Summary Generate elective suggestions for a class
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param classId path int true "Class ID"
// @Param payload body dto.GenerateSuggestionsRequest false "Criteria overrides"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /electives/suggestions/{classId}/generate [post]
func (h *SuggestionHandler) Generate(c *gin.Context) {
	classID, err := pathID(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.GenerateSuggestionsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid criteria payload"))
			return
		}
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	items, err := h.service.Generate(c.Request.Context(), classID, &req.CriteriaOverrides)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{
		"total":    len(items),
		"criteria": h.service.Criteria(&req.CriteriaOverrides),
	})
}

// List godoc
// @Summary Cached suggestions for a class
// @Tags Suggestions
// @Produce json
// @Param classId path int true "Class ID"
// @Param includeApplied query bool false "Include applied suggestions"
// @Success 200 {object} response.Envelope
// @Router /electives/suggestions/{classId} [get]
func (h *SuggestionHandler) List(c *gin.Context) {
	classID, err := pathID(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	includeApplied := false
	if raw := c.Query("includeApplied"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "includeApplied must be a boolean"))
			return
		}
		includeApplied = parsed
	}
	items, err := h.service.ListCached(c.Request.Context(), classID, includeApplied)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Score godoc
// @Summary Score a single class/lesson/teacher candidate
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body dto.ScoreSuggestionRequest true "Candidate"
// @Success 200 {object} response.Envelope
// @Router /electives/suggestions/score [post]
func (h *SuggestionHandler) Score(c *gin.Context) {
	var req dto.ScoreSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	result, err := h.service.Score(c.Request.Context(), req.ClassID, req.LessonID, req.TeacherID, &req.CriteriaOverrides)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Apply godoc
// @Summary Apply a suggestion as an elective assignment
// @Description Returns applied=false when the suggestion is unknown, already applied, or the assignment already exists.
// @Tags Suggestions
// @Produce json
// @Param id path int true "Suggestion ID"
// @Success 200 {object} response.Envelope
// @Router /electives/suggestions/apply/{id} [post]
func (h *SuggestionHandler) Apply(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	applied, err := h.service.Apply(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ApplySuggestionResponse{SuggestionID: id, Applied: applied}, nil)
}

// Refresh godoc
// @Summary Regenerate the suggestion cache for every incomplete class
// @Tags Suggestions
// @Produce json
// @Param async query bool false "Queue the refresh instead of running it inline"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /electives/suggestions/refresh [post]
func (h *SuggestionHandler) Refresh(c *gin.Context) {
	async, _ := strconv.ParseBool(c.Query("async"))
	if async && h.queue != nil {
		jobID, err := h.queue.Enqueue(jobs.Job{Type: RefreshJobType, Key: RefreshJobKey})
		switch {
		case errors.Is(err, jobs.ErrDuplicate):
			response.Accepted(c, dto.RefreshJobResponse{JobID: jobID, Status: "pending"})
		case err != nil:
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, http.StatusServiceUnavailable, "refresh queue unavailable"))
		default:
			response.Accepted(c, dto.RefreshJobResponse{JobID: jobID, Status: "queued"})
		}
		return
	}
	summary, err := h.service.RefreshCache(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// RefreshJob adapts the suggestion refresh to the background queue.
func RefreshJob(svc suggestionRefresher) jobs.Handler {
	return func(ctx context.Context, _ jobs.Job) error {
		_, err := svc.RefreshCache(ctx)
		return err
	}
}
