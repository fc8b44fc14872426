package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-elective-api/internal/models"
	appErrors "github.com/noah-isme/sma-elective-api/pkg/errors"
)

type statusListerStub struct {
	rows []models.ElectiveStatusDetail
	err  error
}

func (s statusListerStub) ListStatuses(ctx context.Context) ([]models.ElectiveStatusDetail, error) {
	return s.rows, s.err
}

func TestReportServiceExportsCSV(t *testing.T) {
	at := time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC)
	status := models.NewElectiveStatus(2, 2, 3, at)
	svc := NewReportService(statusListerStub{rows: []models.ElectiveStatusDetail{{
		ElectiveStatus: status, Grade: 5, Section: "B", SchoolType: "SD", Severity: status.Severity(),
	}}}, nil)
	svc.now = func() time.Time { return at }

	file, err := svc.ExportStatuses(context.Background(), "CSV")
	require.NoError(t, err)
	assert.Equal(t, "elective-status-20240715.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2,5-B,SD,3,2,1,incomplete,warning,2024-07-15T08:00:00Z", lines[1])
}

func TestReportServiceExportsPDFAndRejectsUnknownFormats(t *testing.T) {
	svc := NewReportService(statusListerStub{}, nil)

	file, err := svc.ExportStatuses(context.Background(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Payload), "%PDF"))

	_, err = svc.ExportStatuses(context.Background(), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
