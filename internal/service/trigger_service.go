package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	appErrors "github.com/brightpath-labs/campus-ops-api/pkg/errors"
)

type sapEngine interface {
	Evaluate(ctx context.Context, studentID, evaluatorID string) (*models.SAPEvaluation, error)
	IsEvaluationDue(ctx context.Context, studentID string) (bool, error)
}

type batchStudentLister interface {
	ListActiveIDs(ctx context.Context) ([]string, error)
}

// BatchEvaluatorID is recorded as the evaluator identity for scheduled runs.
const BatchEvaluatorID = "system"

// manualTriggerRoles may force an evaluation outside the due-check cadence.
var manualTriggerRoles = map[models.UserRole]struct{}{
	models.RoleSuperAdmin: {},
	models.RoleAdmin:      {},
	models.RoleRegistrar:  {},
}

// BatchResult summarises one batch trigger pass.
type BatchResult struct {
	Scanned   int `json:"scanned"`
	Evaluated int `json:"evaluated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// TriggerService decides when evaluations run: role-gated manual triggers
// and the interval-based batch pass.
type TriggerService struct {
	engine      sapEngine
	students    batchStudentLister
	concurrency int
	logger      *zap.Logger
}

// NewTriggerService constructs TriggerService.
func NewTriggerService(engine sapEngine, students batchStudentLister, concurrency int, logger *zap.Logger) *TriggerService {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriggerService{engine: engine, students: students, concurrency: concurrency, logger: logger}
}

// ForceEvaluate runs an evaluation on behalf of an administrative identity.
// Unauthorized callers are rejected before any state is touched.
func (s *TriggerService) ForceEvaluate(ctx context.Context, studentID string, claims *models.JWTClaims) (*models.SAPEvaluation, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if _, ok := manualTriggerRoles[claims.Role]; !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role not permitted to trigger evaluations")
	}
	return s.engine.Evaluate(ctx, studentID, claims.UserID)
}

// IsEvaluationDue exposes the due-check query.
func (s *TriggerService) IsEvaluationDue(ctx context.Context, studentID string) (bool, error) {
	return s.engine.IsEvaluationDue(ctx, studentID)
}

// RunDueEvaluations walks all active students once, evaluating every learner
// whose completed hours crossed an evaluation interval. Students are
// deduplicated before submission so no learner is evaluated twice in one
// pass; different learners run in parallel up to the configured concurrency.
// Per-learner failures are logged and counted, they never abort the batch.
func (s *TriggerService) RunDueEvaluations(ctx context.Context) (*BatchResult, error) {
	ids, err := s.students.ListActiveIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students for batch run")
	}

	seen := make(map[string]struct{}, len(ids))
	unique := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	result := &BatchResult{Scanned: len(unique)}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for _, id := range unique {
		select {
		case <-ctx.Done():
			wg.Wait()
			return result, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(studentID string) {
			defer wg.Done()
			defer func() { <-sem }()

			due, err := s.engine.IsEvaluationDue(ctx, studentID)
			if err != nil {
				s.logger.Warn("due check failed", zap.String("student_id", studentID), zap.Error(err))
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return
			}
			if !due {
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return
			}

			if _, err := s.engine.Evaluate(ctx, studentID, BatchEvaluatorID); err != nil {
				s.logger.Warn("batch evaluation failed", zap.String("student_id", studentID), zap.Error(err))
				mu.Lock()
				result.Failed++
				mu.Unlock()
				return
			}

			mu.Lock()
			result.Evaluated++
			mu.Unlock()
		}(id)
	}

	wg.Wait()

	s.logger.Info("sap_batch_run",
		zap.Int("scanned", result.Scanned),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}
