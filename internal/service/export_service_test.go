package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	appErrors "github.com/brightpath-labs/campus-ops-api/pkg/errors"
)

type exportReaderStub struct {
	evaluations []models.SAPEvaluation
	filter      models.SAPEvaluationFilter
}

func (s *exportReaderStub) ListByStudent(ctx context.Context, filter models.SAPEvaluationFilter) ([]models.SAPEvaluation, int, error) {
	s.filter = filter
	return s.evaluations, len(s.evaluations), nil
}

func exportFixtures() []models.SAPEvaluation {
	return []models.SAPEvaluation{
		{
			EvaluationDate:         time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			EvaluationPoint:        "900 Hour Checkpoint",
			HoursAttempted:         900,
			HoursCompleted:         880,
			CompletionRate:         97.78,
			MaxTimeframePercentage: 60,
			IsWithinMaxTimeframe:   true,
			Status:                 models.SAPStatusSatisfactory,
			PreviousStatus:         models.SAPStatusWarning,
			EvaluatedBy:            "system",
		},
		{
			EvaluationDate:       time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			EvaluationPoint:      "450 Hour Checkpoint",
			HoursAttempted:       450,
			HoursCompleted:       250,
			CompletionRate:       55.56,
			Status:               models.SAPStatusWarning,
			PreviousStatus:       models.SAPStatusSatisfactory,
			IsWithinMaxTimeframe: true,
			EvaluatedBy:          "admin-1",
		},
	}
}

func TestExportServiceExportHistoryCSV(t *testing.T) {
	reader := &exportReaderStub{evaluations: exportFixtures()}
	svc := NewExportService(reader, 500, nil)

	file, err := svc.ExportHistory(context.Background(), "student-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "sap-history-student-1.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Evaluation Date")
	assert.Contains(t, lines[0], "Completion Rate")
	assert.Contains(t, lines[1], "2026-02-01")
	assert.Contains(t, lines[1], "900 Hour Checkpoint")
	assert.Contains(t, lines[1], "97.78")
	assert.Contains(t, lines[2], "WARNING")

	assert.Equal(t, 500, reader.filter.PageSize)
}

func TestExportServiceExportHistoryPDF(t *testing.T) {
	reader := &exportReaderStub{evaluations: exportFixtures()}
	svc := NewExportService(reader, 500, nil)

	file, err := svc.ExportHistory(context.Background(), "student-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "sap-history-student-1.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF")))
}

func TestExportServiceExportHistoryDefaultsToCSV(t *testing.T) {
	svc := NewExportService(&exportReaderStub{}, 500, nil)
	file, err := svc.ExportHistory(context.Background(), "student-1", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
}

func TestExportServiceExportHistoryRejectsBadInput(t *testing.T) {
	svc := NewExportService(&exportReaderStub{}, 500, nil)

	_, err := svc.ExportHistory(context.Background(), "", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidArgument.Code, appErrors.FromError(err).Code)

	_, err = svc.ExportHistory(context.Background(), "student-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
