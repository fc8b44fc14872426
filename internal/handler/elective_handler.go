package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-elective-api/internal/dto"
	"github.com/noah-isme/sma-elective-api/internal/middleware"
	"github.com/noah-isme/sma-elective-api/internal/models"
	"github.com/noah-isme/sma-elective-api/internal/service"
	appErrors "github.com/noah-isme/sma-elective-api/pkg/errors"
	"github.com/noah-isme/sma-elective-api/pkg/response"
)

type electiveStatusService interface {
	UpdateStatus(ctx context.Context, classID int64) (*models.ElectiveStatus, error)
	GetStatus(ctx context.Context, classID int64) (*models.ElectiveStatusDetail, error)
	ListStatuses(ctx context.Context) ([]models.ElectiveStatusDetail, error)
	ListIncomplete(ctx context.Context) ([]models.IncompleteClass, error)
	Statistics(ctx context.Context) (*models.ElectiveStatistics, bool, error)
	CompletionPercentage(ctx context.Context) (int, error)
	Distribution(ctx context.Context) ([]models.GradeDistribution, bool, error)
	RefreshAll(ctx context.Context) (*models.RefreshSummary, error)
}

type statusExporter interface {
	ExportStatuses(ctx context.Context, format string) (*service.ReportFile, error)
}

// ElectiveHandler exposes elective quota status endpoints.
type ElectiveHandler struct {
	statuses electiveStatusService
	reports  statusExporter
}

// NewElectiveHandler constructs the handler.
func NewElectiveHandler(statuses electiveStatusService, reports statusExporter) *ElectiveHandler {
	return &ElectiveHandler{statuses: statuses, reports: reports}
}

// List godoc
// @Summary List elective status for every class
// @Tags Electives
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /electives/status [get]
func (h *ElectiveHandler) List(c *gin.Context) {
	items, err := h.statuses.ListStatuses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Get godoc
// @Summary Elective status for one class
// @Tags Electives
// @Produce json
// @Param classId path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /electives/status/{classId} [get]
func (h *ElectiveHandler) Get(c *gin.Context) {
	classID, err := pathID(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.statuses.GetStatus(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if status == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "elective status not computed for class"))
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Refresh godoc
// @Summary Recompute elective status for one class
// @Tags Electives
// @Produce json
// @Param classId path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /electives/status/{classId}/refresh [post]
func (h *ElectiveHandler) Refresh(c *gin.Context) {
	classID, err := pathID(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.statuses.UpdateStatus(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// RefreshAll godoc
// @Summary Recompute elective status for all classes
// @Tags Electives
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /electives/status/refresh [post]
func (h *ElectiveHandler) RefreshAll(c *gin.Context) {
	summary, err := h.statuses.RefreshAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Incomplete godoc
// @Summary Classes below their elective quota
// @Tags Electives
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /electives/incomplete [get]
func (h *ElectiveHandler) Incomplete(c *gin.Context) {
	items, err := h.statuses.ListIncomplete(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Statistics godoc
// @Summary Elective completion statistics
// @Tags Electives
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /electives/statistics [get]
func (h *ElectiveHandler) Statistics(c *gin.Context) {
	stats, hit, err := h.statuses.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
}

// Completion godoc
// @Summary Overall elective completion percentage
// @Tags Electives
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /electives/completion [get]
func (h *ElectiveHandler) Completion(c *gin.Context) {
	pct, err := h.statuses.CompletionPercentage(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CompletionResponse{CompletionPercentage: pct}, nil)
}

// Distribution godoc
// @Summary Elective completion per grade
// @Tags Electives
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /electives/distribution [get]
func (h *ElectiveHandler) Distribution(c *gin.Context) {
	rows, hit, err := h.statuses.Distribution(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, rows, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export elective status report
// @Tags Electives
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /electives/export [get]
func (h *ElectiveHandler) Export(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	file, err := h.reports.ExportStatuses(c.Request.Context(), strings.ToLower(strings.TrimSpace(c.Query("format"))))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}

func pathID(c *gin.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}
