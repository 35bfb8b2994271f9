package models

import "time"

// SAPStatus represents a learner's satisfactory academic progress standing.
type SAPStatus string

const (
	SAPStatusSatisfactory   SAPStatus = "SATISFACTORY"
	SAPStatusWarning        SAPStatus = "WARNING"
	SAPStatusProbation      SAPStatus = "PROBATION"
	SAPStatusSuspension     SAPStatus = "SUSPENSION"
	SAPStatusAppealApproved SAPStatus = "APPEAL_APPROVED"
)

// Valid returns true when the status is a supported value.
func (s SAPStatus) Valid() bool {
	switch s {
	case SAPStatusSatisfactory, SAPStatusWarning, SAPStatusProbation, SAPStatusSuspension, SAPStatusAppealApproved:
		return true
	default:
		return false
	}
}

// NextSAPStatus is the total transition function of the SAP state machine.
// A passing evaluation always resets to SATISFACTORY, clearing any prior
// severity. A failing evaluation escalates one step, except after a granted
// appeal where it goes straight to SUSPENSION. SUSPENSION absorbs every
// failing path and is only left through an external appeal decision.
// The second return value reports whether an academic plan becomes required.
func NextSAPStatus(prev SAPStatus, passing bool) (SAPStatus, bool) {
	if passing {
		return SAPStatusSatisfactory, false
	}
	switch prev {
	case SAPStatusSatisfactory:
		return SAPStatusWarning, false
	case SAPStatusWarning:
		return SAPStatusProbation, true
	case SAPStatusProbation:
		return SAPStatusSuspension, false
	case SAPStatusAppealApproved:
		return SAPStatusSuspension, false
	case SAPStatusSuspension:
		return SAPStatusSuspension, false
	default:
		// Unknown stored values collapse into the absorbing state rather
		// than silently passing.
		return SAPStatusSuspension, false
	}
}

// SAPComplianceConfig holds per-program evaluation thresholds. Exactly one
// active config per program is expected; it is immutable during evaluation.
type SAPComplianceConfig struct {
	ID                      string    `db:"id" json:"id"`
	ProgramID               string    `db:"program_id" json:"program_id"`
	MinCompletionRate       float64   `db:"min_completion_rate" json:"min_completion_rate"`
	MaxTimeframePercentage  float64   `db:"max_timeframe_percentage" json:"max_timeframe_percentage"`
	EvaluationIntervalHours float64   `db:"evaluation_interval_hours" json:"evaluation_interval_hours"`
	IsActive                bool      `db:"is_active" json:"is_active"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// Default thresholds applied when an administrator creates a config without
// overrides.
const (
	DefaultMinCompletionRate       = 67.0
	DefaultMaxTimeframePercentage  = 150.0
	DefaultEvaluationIntervalHours = 450.0
)

// SAPEvaluation is an immutable record of a single evaluation run.
type SAPEvaluation struct {
	ID                     string    `db:"id" json:"id"`
	StudentID              string    `db:"student_id" json:"student_id"`
	EvaluationDate         time.Time `db:"evaluation_date" json:"evaluation_date"`
	EvaluationPoint        string    `db:"evaluation_point" json:"evaluation_point"`
	HoursAttempted         float64   `db:"hours_attempted" json:"hours_attempted"`
	HoursCompleted         float64   `db:"hours_completed" json:"hours_completed"`
	CompletionRate         float64   `db:"completion_rate" json:"completion_rate"`
	MaxTimeframePercentage float64   `db:"max_timeframe_percentage" json:"max_timeframe_percentage"`
	IsWithinMaxTimeframe   bool      `db:"is_within_max_timeframe" json:"is_within_max_timeframe"`
	Status                 SAPStatus `db:"status" json:"status"`
	PreviousStatus         SAPStatus `db:"previous_status" json:"previous_status"`
	AcademicPlanRequired   bool      `db:"academic_plan_required" json:"academic_plan_required"`
	EvaluatedBy            string    `db:"evaluated_by" json:"evaluated_by"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

// SAPEvaluationFilter scopes history queries.
type SAPEvaluationFilter struct {
	StudentID string
	Page      int
	PageSize  int
}

// CumulativeHours mirrors the two running totals the engine reads from the
// attendance ledger. Both fields come from a single row read so the pair is
// never torn.
type CumulativeHours struct {
	Completed float64 `db:"hours_completed" json:"hours_completed"`
	Scheduled float64 `db:"hours_scheduled" json:"hours_scheduled"`
}

// StatusChange is the dispatch payload emitted after a transition.
type StatusChange struct {
	StudentID    string    `json:"student_id"`
	EvaluationID string    `json:"evaluation_id"`
	From         SAPStatus `json:"from"`
	To           SAPStatus `json:"to"`
	OccurredAt   time.Time `json:"occurred_at"`
}
