package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	appErrors "github.com/brightpath-labs/campus-ops-api/pkg/errors"
)

type ledgerStub struct {
	events     []*models.ClockEvent
	summary    *models.AttendanceSummary
	summaryErr error
	createErr  error
}

func (l *ledgerStub) CreateClockEvent(ctx context.Context, event *models.ClockEvent) error {
	if l.createErr != nil {
		return l.createErr
	}
	l.events = append(l.events, event)
	return nil
}

func (l *ledgerStub) Summary(ctx context.Context, studentID string) (*models.AttendanceSummary, error) {
	if l.summaryErr != nil {
		return nil, l.summaryErr
	}
	return l.summary, nil
}

func (l *ledgerStub) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.ClockEvent, error) {
	result := make([]models.ClockEvent, 0, len(l.events))
	for _, event := range l.events {
		result = append(result, *event)
	}
	return result, nil
}

type hoursDelta struct {
	completed float64
	scheduled float64
}

type attendanceStudentStub struct {
	student *models.Student
	hours   *models.CumulativeHours
	added   []hoursDelta
}

func (s *attendanceStudentStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s.student == nil || s.student.ID != id {
		return nil, sql.ErrNoRows
	}
	copy := *s.student
	return &copy, nil
}

func (s *attendanceStudentStub) GetCumulativeHours(ctx context.Context, id string) (*models.CumulativeHours, error) {
	if s.hours == nil {
		return nil, sql.ErrNoRows
	}
	copy := *s.hours
	return &copy, nil
}

func (s *attendanceStudentStub) AddHours(ctx context.Context, id string, completedDelta, scheduledDelta float64) error {
	s.added = append(s.added, hoursDelta{completed: completedDelta, scheduled: scheduledDelta})
	return nil
}

func clockRequest(duration time.Duration) RecordClockRequest {
	in := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	return RecordClockRequest{
		Date:     in,
		Category: models.ClockCategoryPractical,
		ClockIn:  in,
		ClockOut: in.Add(duration),
	}
}

func TestAttendanceServiceRecordClockPair(t *testing.T) {
	ledger := &ledgerStub{}
	students := &attendanceStudentStub{student: &models.Student{ID: "student-1"}}
	svc := NewAttendanceService(ledger, students, nil, nil)

	event, err := svc.RecordClockPair(context.Background(), "student-1", clockRequest(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2.0, event.Hours)
	assert.Equal(t, models.ClockCategoryPractical, event.Category)
	require.Len(t, ledger.events, 1)
	require.Len(t, students.added, 1)
	assert.Equal(t, 2.0, students.added[0].completed)
	// Scheduled hours default to the session length.
	assert.Equal(t, 2.0, students.added[0].scheduled)
}

func TestAttendanceServiceRecordClockPairScheduledOverride(t *testing.T) {
	ledger := &ledgerStub{}
	students := &attendanceStudentStub{student: &models.Student{ID: "student-1"}}
	svc := NewAttendanceService(ledger, students, nil, nil)

	req := clockRequest(90 * time.Minute)
	req.ScheduledHours = 3
	_, err := svc.RecordClockPair(context.Background(), "student-1", req)
	require.NoError(t, err)
	require.Len(t, students.added, 1)
	assert.Equal(t, 1.5, students.added[0].completed)
	assert.Equal(t, 3.0, students.added[0].scheduled)
}

func TestAttendanceServiceRecordClockPairRejectsBadInput(t *testing.T) {
	ledger := &ledgerStub{}
	students := &attendanceStudentStub{student: &models.Student{ID: "student-1"}}
	svc := NewAttendanceService(ledger, students, nil, nil)

	req := clockRequest(time.Hour)
	req.ClockOut = req.ClockIn.Add(-time.Hour)
	_, err := svc.RecordClockPair(context.Background(), "student-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = clockRequest(time.Hour)
	req.Category = models.ClockCategory("REMOTE")
	_, err = svc.RecordClockPair(context.Background(), "student-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	assert.Empty(t, ledger.events)
	assert.Empty(t, students.added)
}

func TestAttendanceServiceRecordClockPairStudentNotFound(t *testing.T) {
	svc := NewAttendanceService(&ledgerStub{}, &attendanceStudentStub{}, nil, nil)
	_, err := svc.RecordClockPair(context.Background(), "missing", clockRequest(time.Hour))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceGetCumulativeHours(t *testing.T) {
	ledger := &ledgerStub{summary: &models.AttendanceSummary{TheoryHours: 10, PracticalHours: 30, TotalHours: 40}}
	students := &attendanceStudentStub{hours: &models.CumulativeHours{Completed: 40, Scheduled: 45}}
	svc := NewAttendanceService(ledger, students, nil, nil)

	resp, err := svc.GetCumulativeHours(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, 40.0, resp.Completed)
	assert.Equal(t, 45.0, resp.Scheduled)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 40.0, resp.Summary.TotalHours)
}

func TestAttendanceServiceGetCumulativeHoursSummaryBestEffort(t *testing.T) {
	ledger := &ledgerStub{summaryErr: errors.New("ledger query failed")}
	students := &attendanceStudentStub{hours: &models.CumulativeHours{Completed: 40, Scheduled: 45}}
	svc := NewAttendanceService(ledger, students, nil, nil)

	resp, err := svc.GetCumulativeHours(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Nil(t, resp.Summary)
}
