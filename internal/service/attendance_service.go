package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	appErrors "github.com/brightpath-labs/campus-ops-api/pkg/errors"
)

type attendanceLedger interface {
	CreateClockEvent(ctx context.Context, event *models.ClockEvent) error
	Summary(ctx context.Context, studentID string) (*models.AttendanceSummary, error)
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.ClockEvent, error)
}

type attendanceStudentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	GetCumulativeHours(ctx context.Context, id string) (*models.CumulativeHours, error)
	AddHours(ctx context.Context, id string, completedDelta, scheduledDelta float64) error
}

// RecordClockRequest describes a completed clock-in/clock-out pair.
type RecordClockRequest struct {
	Date           time.Time            `json:"date" validate:"required"`
	Category       models.ClockCategory `json:"category" validate:"required"`
	ClockIn        time.Time            `json:"clock_in" validate:"required"`
	ClockOut       time.Time            `json:"clock_out" validate:"required"`
	ScheduledHours float64              `json:"scheduled_hours" validate:"gte=0"`
}

// CumulativeHoursResponse combines running totals and the per-category
// ledger summary.
type CumulativeHoursResponse struct {
	models.CumulativeHours
	Summary *models.AttendanceSummary `json:"summary,omitempty"`
}

// AttendanceService maintains the clock-event ledger and the running hour
// totals the compliance engine reads.
type AttendanceService struct {
	ledger    attendanceLedger
	students  attendanceStudentStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(ledger attendanceLedger, students attendanceStudentStore, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{ledger: ledger, students: students, validator: validate, logger: logger}
}

// RecordClockPair writes the session to the ledger and rolls the hours into
// the student's cumulative totals. Scheduled hours default to the actual
// session length when the caller does not supply a baseline.
func (s *AttendanceService) RecordClockPair(ctx context.Context, studentID string, req RecordClockRequest) (*models.ClockEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clock payload")
	}
	if !req.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance category")
	}
	if !req.ClockOut.After(req.ClockIn) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clock-out must be after clock-in")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	hours := round2(req.ClockOut.Sub(req.ClockIn).Hours())
	scheduled := req.ScheduledHours
	if scheduled <= 0 {
		scheduled = hours
	}

	event := &models.ClockEvent{
		StudentID: student.ID,
		Date:      req.Date,
		Category:  req.Category,
		ClockIn:   req.ClockIn,
		ClockOut:  req.ClockOut,
		Hours:     hours,
	}

	if err := s.ledger.CreateClockEvent(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to record clock event")
	}
	if err := s.students.AddHours(ctx, student.ID, hours, scheduled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update cumulative hours")
	}

	return event, nil
}

// GetCumulativeHours returns the totals the compliance engine consumes plus
// the per-category breakdown.
func (s *AttendanceService) GetCumulativeHours(ctx context.Context, studentID string) (*CumulativeHoursResponse, error) {
	hours, err := s.students.GetCumulativeHours(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cumulative hours")
	}

	resp := &CumulativeHoursResponse{CumulativeHours: *hours}
	if summary, err := s.ledger.Summary(ctx, studentID); err == nil {
		resp.Summary = summary
	} else {
		s.logger.Warn("failed to load attendance summary", zap.String("student_id", studentID), zap.Error(err))
	}
	return resp, nil
}

// ListClockEvents returns recent ledger entries for a student.
func (s *AttendanceService) ListClockEvents(ctx context.Context, studentID string, limit int) ([]models.ClockEvent, error) {
	events, err := s.ledger.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clock events")
	}
	return events, nil
}
