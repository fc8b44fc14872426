package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-elective-api/internal/models"
	appErrors "github.com/noah-isme/sma-elective-api/pkg/errors"
	"github.com/noah-isme/sma-elective-api/pkg/export"
)

type statusLister interface {
	ListStatuses(ctx context.Context) ([]models.ElectiveStatusDetail, error)
}

// ReportFile is a rendered export ready to stream.
type ReportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ReportService renders the elective status overview as CSV or PDF.
type ReportService struct {
	statuses  statusLister
	renderers map[string]export.Renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a ReportService with the CSV and PDF renderers.
func NewReportService(statuses statusLister, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		statuses: statuses,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ExportStatuses renders every stored status in the requested format.
func (s *ReportService) ExportStatuses(ctx context.Context, format string) (*ReportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	rows, err := s.statuses.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   "Elective Assignment Status",
		Headers: []string{"Class ID", "Class", "School Type", "Required", "Assigned", "Missing", "Status", "Severity", "Last Updated"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		class := models.Class{ID: row.ClassID, Grade: row.Grade, Section: row.Section}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(row.ClassID, 10),
			class.DisplayName(),
			row.SchoolType,
			strconv.Itoa(row.RequiredCount),
			strconv.Itoa(row.AssignedCount),
			strconv.Itoa(row.MissingCount),
			string(row.Status),
			string(row.Severity),
			row.LastUpdated.Format(time.RFC3339),
		})
	}

	payload, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render report")
	}
	s.logger.Info("elective status report exported", zap.String("format", format), zap.Int("rows", len(table.Rows)))
	return &ReportFile{
		Filename:    fmt.Sprintf("elective-status-%s.%s", s.now().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}
