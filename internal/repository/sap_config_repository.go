package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
)

// SAPConfigRepository reads per-program compliance thresholds. The engine
// only ever consumes a single active config; when administrative tooling has
// left more than one active row behind, the newest wins here so the caller
// never has to branch on row multiplicity.
type SAPConfigRepository struct {
	db *sqlx.DB
}

// NewSAPConfigRepository constructs the repository.
func NewSAPConfigRepository(db *sqlx.DB) *SAPConfigRepository {
	return &SAPConfigRepository{db: db}
}

// FindActiveByProgram returns the active compliance config for a program.
// Returns sql.ErrNoRows when no active config exists.
func (r *SAPConfigRepository) FindActiveByProgram(ctx context.Context, programID string) (*models.SAPComplianceConfig, error) {
	const query = `SELECT id, program_id, min_completion_rate, max_timeframe_percentage,
        evaluation_interval_hours, is_active, created_at, updated_at
        FROM sap_compliance_configs
        WHERE program_id = $1 AND is_active = TRUE
        ORDER BY updated_at DESC
        LIMIT 1`
	var cfg models.SAPComplianceConfig
	if err := r.db.GetContext(ctx, &cfg, query, programID); err != nil {
		return nil, err
	}
	return &cfg, nil
}
