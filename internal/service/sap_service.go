package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	appErrors "github.com/brightpath-labs/campus-ops-api/pkg/errors"
)

type sapStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type sapProgramReader interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

type sapConfigReader interface {
	FindActiveByProgram(ctx context.Context, programID string) (*models.SAPComplianceConfig, error)
}

type sapEvaluationStore interface {
	CreateWithStatusUpdate(ctx context.Context, eval *models.SAPEvaluation, expectedVersion int64) error
	FindLatestByStudent(ctx context.Context, studentID string) (*models.SAPEvaluation, error)
	ListByStudent(ctx context.Context, filter models.SAPEvaluationFilter) ([]models.SAPEvaluation, int, error)
}

type statusChangeDispatcher interface {
	DispatchStatusChange(change models.StatusChange)
}

type historyCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// SAPService runs satisfactory academic progress evaluations: it turns the
// learner's cumulative hours and the program's thresholds into a compliance
// status transition, persisting an immutable record per run.
type SAPService struct {
	students    sapStudentReader
	programs    sapProgramReader
	configs     sapConfigReader
	evaluations sapEvaluationStore
	dispatcher  statusChangeDispatcher
	cache       historyCache
	cacheTTL    time.Duration
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewSAPService constructs SAPService. dispatcher, cache and metrics may be
// nil; the engine then runs without side channels.
func NewSAPService(students sapStudentReader, programs sapProgramReader, configs sapConfigReader, evaluations sapEvaluationStore, dispatcher statusChangeDispatcher, cache historyCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *SAPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &SAPService{
		students:    students,
		programs:    programs,
		configs:     configs,
		evaluations: evaluations,
		dispatcher:  dispatcher,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
		logger:      logger,
	}
}

// Evaluate computes completion rate and timeframe usage for a student,
// advances the compliance status and persists the evaluation record together
// with the status update. On a concurrent evaluation of the same student the
// version check fails, nothing is persisted and ErrEvaluationBusy is
// returned; retrying is safe.
func (s *SAPService) Evaluate(ctx context.Context, studentID, evaluatorID string) (*models.SAPEvaluation, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "student id is required")
	}
	if evaluatorID == "" {
		evaluatorID = "system"
	}
	start := time.Now()

	student, program, cfg, err := s.loadEvaluationInputs(ctx, studentID)
	if err != nil {
		return nil, err
	}

	previous := student.SAPStatusOrDefault()
	hoursAttempted := math.Max(student.HoursScheduled, student.HoursCompleted)

	completionRate := 100.0
	if hoursAttempted > 0 {
		completionRate = round2(student.HoursCompleted / hoursAttempted * 100)
	}

	maxTimeframeHours := program.TotalHours * cfg.MaxTimeframePercentage / 100

	timeframeActual := 0.0
	if program.TotalHours > 0 {
		timeframeActual = round2(hoursAttempted / program.TotalHours * 100)
	}

	withinTimeframe := hoursAttempted <= maxTimeframeHours
	passing := completionRate >= cfg.MinCompletionRate && withinTimeframe

	newStatus, planRequired := models.NextSAPStatus(previous, passing)

	eval := &models.SAPEvaluation{
		StudentID:              studentID,
		EvaluationDate:         time.Now().UTC(),
		EvaluationPoint:        checkpointLabel(student.HoursCompleted, cfg.EvaluationIntervalHours),
		HoursAttempted:         hoursAttempted,
		HoursCompleted:         student.HoursCompleted,
		CompletionRate:         completionRate,
		MaxTimeframePercentage: timeframeActual,
		IsWithinMaxTimeframe:   withinTimeframe,
		Status:                 newStatus,
		PreviousStatus:         previous,
		AcademicPlanRequired:   planRequired,
		EvaluatedBy:            evaluatorID,
	}

	if err := s.evaluations.CreateWithStatusUpdate(ctx, eval, student.StatusVersion); err != nil {
		s.metrics.ObserveEvaluation("error", time.Since(start))
		return nil, err
	}

	result := "fail"
	if passing {
		result = "pass"
	}
	s.metrics.ObserveEvaluation(result, time.Since(start))

	s.logger.Info("sap_evaluation",
		zap.String("student_id", studentID),
		zap.String("previous_status", string(previous)),
		zap.String("status", string(newStatus)),
		zap.Float64("completion_rate", completionRate),
		zap.Bool("within_timeframe", withinTimeframe),
		zap.String("evaluated_by", evaluatorID),
	)

	// Dispatch happens after the transaction committed so downstream sinks
	// never run while the student row is contended.
	if newStatus != previous {
		s.metrics.RecordTransition(previous, newStatus)
		if s.dispatcher != nil {
			s.dispatcher.DispatchStatusChange(models.StatusChange{
				StudentID:    studentID,
				EvaluationID: eval.ID,
				From:         previous,
				To:           newStatus,
				OccurredAt:   eval.EvaluationDate,
			})
		}
	}

	s.invalidateHistory(ctx, studentID)

	return eval, nil
}

// IsEvaluationDue reports whether the student has completed at least one
// evaluation interval of hours since the last recorded evaluation. Pure
// read; safe to call arbitrarily often.
func (s *SAPService) IsEvaluationDue(ctx context.Context, studentID string) (bool, error) {
	student, _, cfg, err := s.loadEvaluationInputs(ctx, studentID)
	if err != nil {
		return false, err
	}

	latest, err := s.evaluations.FindLatestByStudent(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest evaluation")
	}

	lastEvalHours := 0.0
	if latest != nil {
		lastEvalHours = latest.HoursCompleted
	}

	return student.HoursCompleted-lastEvalHours >= cfg.EvaluationIntervalHours, nil
}

// History returns a student's evaluations newest first, via the cache when
// warm.
func (s *SAPService) History(ctx context.Context, filter models.SAPEvaluationFilter) ([]models.SAPEvaluation, *models.Pagination, error) {
	if filter.StudentID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidArgument, "student id is required")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	type cachedHistory struct {
		Evaluations []models.SAPEvaluation `json:"evaluations"`
		Total       int                    `json:"total"`
	}

	key := historyCacheKey(filter.StudentID, filter.Page, filter.PageSize)
	if s.cache != nil {
		var cached cachedHistory
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: cached.Total}
			return cached.Evaluations, pagination, nil
		}
	}

	evaluations, total, err := s.evaluations.ListByStudent(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedHistory{Evaluations: evaluations, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache evaluation history", zap.Error(err))
		}
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return evaluations, pagination, nil
}

func (s *SAPService) loadEvaluationInputs(ctx context.Context, studentID string) (*models.Student, *models.Program, *models.SAPComplianceConfig, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.ProgramID == "" {
		return nil, nil, nil, appErrors.Clone(appErrors.ErrConfigMissing, "student has no program assigned")
	}

	program, err := s.programs.FindByID(ctx, student.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	cfg, err := s.configs.FindActiveByProgram(ctx, student.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrConfigMissing, "")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance config")
	}

	return student, program, cfg, nil
}

func (s *SAPService) invalidateHistory(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("sap:history:%s:*", studentID)); err != nil {
		s.logger.Warn("failed to invalidate history cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

// checkpointLabel derives the human readable milestone name. The ordinal is
// the number of completed evaluation intervals, never below one so a brand
// new learner still lands on the first checkpoint.
func checkpointLabel(hoursCompleted, intervalHours float64) string {
	if intervalHours <= 0 {
		intervalHours = models.DefaultEvaluationIntervalHours
	}
	ordinal := math.Ceil(hoursCompleted / intervalHours)
	if ordinal < 1 {
		ordinal = 1
	}
	return strconv.FormatFloat(intervalHours*ordinal, 'f', -1, 64) + " Hour Checkpoint"
}

func historyCacheKey(studentID string, page, size int) string {
	return fmt.Sprintf("sap:history:%s:%d:%d", studentID, page, size)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
