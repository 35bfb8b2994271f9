package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
)

// StudentRepository handles persistence of learner records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, nis, full_name, program_id, hours_completed, hours_scheduled,
        current_sap_status, status_version, active, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// GetCumulativeHours reads both running totals from a single row so the pair
// can never be observed torn.
func (r *StudentRepository) GetCumulativeHours(ctx context.Context, id string) (*models.CumulativeHours, error) {
	const query = `SELECT hours_completed, hours_scheduled FROM students WHERE id = $1`
	var hours models.CumulativeHours
	if err := r.db.GetContext(ctx, &hours, query, id); err != nil {
		return nil, err
	}
	return &hours, nil
}

// AddHours increments the cumulative totals. The single UPDATE is serialized
// per row by the database, so concurrent ledger writes cannot interleave.
func (r *StudentRepository) AddHours(ctx context.Context, id string, completedDelta, scheduledDelta float64) error {
	const query = `UPDATE students
        SET hours_completed = hours_completed + $2,
            hours_scheduled = hours_scheduled + $3,
            updated_at = NOW()
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, completedDelta, scheduledDelta)
	if err != nil {
		return fmt.Errorf("add student hours: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("add student hours: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("add student hours: student %s not found", id)
	}
	return nil
}

// ListActiveIDs returns IDs of all active students for batch evaluation.
func (r *StudentRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT id FROM students WHERE active = TRUE ORDER BY id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	return ids, nil
}
