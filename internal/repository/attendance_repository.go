package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
)

// AttendanceRepository persists the clock-event ledger.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// CreateClockEvent inserts a completed clock-in/clock-out pair.
func (r *AttendanceRepository) CreateClockEvent(ctx context.Context, event *models.ClockEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO clock_events (id, student_id, date, category, clock_in, clock_out, hours, created_at)
        VALUES (:id, :student_id, :date, :category, :clock_in, :clock_out, :hours, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create clock event: %w", err)
	}
	return nil
}

// Summary aggregates ledger hours per category for a student.
func (r *AttendanceRepository) Summary(ctx context.Context, studentID string) (*models.AttendanceSummary, error) {
	const query = `SELECT
        COALESCE(SUM(hours) FILTER (WHERE category = 'THEORY'), 0) AS theory_hours,
        COALESCE(SUM(hours) FILTER (WHERE category = 'PRACTICAL'), 0) AS practical_hours,
        COALESCE(SUM(hours), 0) AS total_hours
        FROM clock_events WHERE student_id = $1`
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, studentID); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	return &summary, nil
}

// ListByStudent returns clock events newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.ClockEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id, student_id, date, category, clock_in, clock_out, hours, created_at
        FROM clock_events WHERE student_id = $1 ORDER BY date DESC, created_at DESC LIMIT %d`, limit)
	var events []models.ClockEvent
	if err := r.db.SelectContext(ctx, &events, query, studentID); err != nil {
		return nil, fmt.Errorf("list clock events: %w", err)
	}
	return events, nil
}
