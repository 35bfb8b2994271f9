package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	appErrors "github.com/brightpath-labs/campus-ops-api/pkg/errors"
	"github.com/brightpath-labs/campus-ops-api/pkg/export"
)

type exportHistoryReader interface {
	ListByStudent(ctx context.Context, filter models.SAPEvaluationFilter) ([]models.SAPEvaluation, int, error)
}

// ExportFile is a rendered evaluation history document.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders a student's evaluation history for appeal review.
type ExportService struct {
	evaluations exportHistoryReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	maxRows     int
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(evaluations exportHistoryReader, maxRows int, logger *zap.Logger) *ExportService {
	if maxRows <= 0 {
		maxRows = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		evaluations: evaluations,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		maxRows:     maxRows,
		logger:      logger,
	}
}

var exportHeaders = []string{
	"Evaluation Date", "Checkpoint", "Hours Attempted", "Hours Completed",
	"Completion Rate", "Timeframe %", "Within Timeframe", "Previous Status",
	"Status", "Academic Plan", "Evaluated By",
}

// ExportHistory renders the newest evaluations in the requested format.
// Supported formats: csv, pdf.
func (s *ExportService) ExportHistory(ctx context.Context, studentID, format string) (*ExportFile, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "student id is required")
	}

	evaluations, _, err := s.evaluations.ListByStudent(ctx, models.SAPEvaluationFilter{
		StudentID: studentID,
		Page:      1,
		PageSize:  s.maxRows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation history")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(evaluations))}
	for _, eval := range evaluations {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Evaluation Date": eval.EvaluationDate.Format("2006-01-02"),
			"Checkpoint":      eval.EvaluationPoint,
			"Hours Attempted": formatHours(eval.HoursAttempted),
			"Hours Completed": formatHours(eval.HoursCompleted),
			"Completion Rate": formatHours(eval.CompletionRate),
			"Timeframe %":     formatHours(eval.MaxTimeframePercentage),
			"Within Timeframe": strconv.FormatBool(eval.IsWithinMaxTimeframe),
			"Previous Status": string(eval.PreviousStatus),
			"Status":          string(eval.Status),
			"Academic Plan":   strconv.FormatBool(eval.AcademicPlanRequired),
			"Evaluated By":    eval.EvaluatedBy,
		})
	}

	switch format {
	case "csv", "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("sap-history-%s.csv", studentID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, fmt.Sprintf("SAP Evaluation History - %s", studentID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("sap-history-%s.pdf", studentID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
