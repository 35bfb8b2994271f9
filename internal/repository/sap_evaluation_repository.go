package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	appErrors "github.com/brightpath-labs/campus-ops-api/pkg/errors"
)

// SAPEvaluationRepository handles the append-only evaluation ledger and the
// coupled status write on the student row.
type SAPEvaluationRepository struct {
	db *sqlx.DB
}

// NewSAPEvaluationRepository constructs the repository.
func NewSAPEvaluationRepository(db *sqlx.DB) *SAPEvaluationRepository {
	return &SAPEvaluationRepository{db: db}
}

// CreateWithStatusUpdate persists the evaluation record and advances the
// student's current status in a single transaction. The student update is
// version-checked: if another evaluation committed since the caller read the
// student, zero rows match, the transaction rolls back and ErrEvaluationBusy
// is returned. Either both writes take effect or neither does.
func (r *SAPEvaluationRepository) CreateWithStatusUpdate(ctx context.Context, eval *models.SAPEvaluation, expectedVersion int64) error {
	if eval.ID == "" {
		eval.ID = uuid.NewString()
	}
	if eval.EvaluationDate.IsZero() {
		eval.EvaluationDate = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "begin evaluation transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO sap_evaluations (id, student_id, evaluation_date, evaluation_point,
        hours_attempted, hours_completed, completion_rate, max_timeframe_percentage,
        is_within_max_timeframe, status, previous_status, academic_plan_required, evaluated_by)
        VALUES (:id, :student_id, :evaluation_date, :evaluation_point,
        :hours_attempted, :hours_completed, :completion_rate, :max_timeframe_percentage,
        :is_within_max_timeframe, :status, :previous_status, :academic_plan_required, :evaluated_by)`
	if _, err := tx.NamedExecContext(ctx, insert, eval); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "insert evaluation record")
	}

	const update = `UPDATE students
        SET current_sap_status = $2, status_version = status_version + 1, updated_at = NOW()
        WHERE id = $1 AND status_version = $3`
	result, err := tx.ExecContext(ctx, update, eval.StudentID, eval.Status, expectedVersion)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "update student status")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "update student status")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrEvaluationBusy, "")
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "commit evaluation")
	}
	return nil
}

// FindLatestByStudent returns the most recent evaluation for a student, or
// nil when none exists yet.
func (r *SAPEvaluationRepository) FindLatestByStudent(ctx context.Context, studentID string) (*models.SAPEvaluation, error) {
	const query = `SELECT id, student_id, evaluation_date, evaluation_point, hours_attempted,
        hours_completed, completion_rate, max_timeframe_percentage, is_within_max_timeframe,
        status, previous_status, academic_plan_required, evaluated_by, created_at
        FROM sap_evaluations WHERE student_id = $1
        ORDER BY evaluation_date DESC, created_at DESC LIMIT 1`
	var eval models.SAPEvaluation
	if err := r.db.GetContext(ctx, &eval, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest evaluation: %w", err)
	}
	return &eval, nil
}

// ListByStudent returns evaluations newest first with pagination.
func (r *SAPEvaluationRepository) ListByStudent(ctx context.Context, filter models.SAPEvaluationFilter) ([]models.SAPEvaluation, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_id, evaluation_date, evaluation_point, hours_attempted,
        hours_completed, completion_rate, max_timeframe_percentage, is_within_max_timeframe,
        status, previous_status, academic_plan_required, evaluated_by, created_at
        FROM sap_evaluations WHERE student_id = $1
        ORDER BY evaluation_date DESC, created_at DESC LIMIT %d OFFSET %d`, size, offset)

	var evaluations []models.SAPEvaluation
	if err := r.db.SelectContext(ctx, &evaluations, query, filter.StudentID); err != nil {
		return nil, 0, fmt.Errorf("list evaluations: %w", err)
	}

	const countQuery = `SELECT COUNT(*) FROM sap_evaluations WHERE student_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, filter.StudentID); err != nil {
		return nil, 0, fmt.Errorf("count evaluations: %w", err)
	}
	return evaluations, total, nil
}
