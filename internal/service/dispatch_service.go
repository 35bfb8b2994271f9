package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	"github.com/brightpath-labs/campus-ops-api/pkg/jobs"
)

// NotificationSink receives learner status change notices. Implementations
// live outside this core (mail, push, webhook); a log-only sink is provided
// for deployments without one.
type NotificationSink interface {
	NotifyStatusChange(ctx context.Context, studentID string, status models.SAPStatus) error
}

type dispatchAuditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// DispatchService fans a status change out to the notification sink and the
// audit trail. Everything here is best-effort: failures are logged and
// counted, never surfaced to the evaluation path, and no delivery is
// retried.
type DispatchService struct {
	queue   *jobs.Queue
	sink    NotificationSink
	audit   dispatchAuditWriter
	timeout time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

// DispatchConfig tunes the dispatch worker pool.
type DispatchConfig struct {
	Workers int
	Timeout time.Duration
}

// NewDispatchService constructs DispatchService backed by an in-memory
// worker queue.
func NewDispatchService(sink NotificationSink, audit dispatchAuditWriter, cfg DispatchConfig, metrics *MetricsService, logger *zap.Logger) *DispatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	s := &DispatchService{
		sink:    sink,
		audit:   audit,
		timeout: cfg.Timeout,
		metrics: metrics,
		logger:  logger,
	}
	s.queue = jobs.NewQueue("sap-dispatch", s.handle, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the dispatch workers.
func (s *DispatchService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *DispatchService) Stop() {
	s.queue.Stop()
}

// DispatchStatusChange enqueues a status change for delivery. Enqueue
// failures are logged and dropped.
func (s *DispatchService) DispatchStatusChange(change models.StatusChange) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      change.EvaluationID,
		Type:    "status_change",
		Payload: change,
	})
	if err != nil {
		s.metrics.RecordDispatchFailure()
		s.logger.Warn("failed to enqueue status change dispatch",
			zap.String("student_id", change.StudentID), zap.Error(err))
	}
}

func (s *DispatchService) handle(ctx context.Context, job jobs.Job) error {
	change, ok := job.Payload.(models.StatusChange)
	if !ok {
		s.logger.Warn("unexpected dispatch payload", zap.String("job_id", job.ID))
		return nil
	}

	if s.sink != nil {
		notifyCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.sink.NotifyStatusChange(notifyCtx, change.StudentID, change.To)
		cancel()
		if err != nil {
			s.metrics.RecordDispatchFailure()
			s.logger.Warn("status change notification failed",
				zap.String("student_id", change.StudentID),
				zap.String("status", string(change.To)),
				zap.Error(err))
		}
	}

	if s.audit != nil {
		payload, _ := json.Marshal(change)
		auditCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.audit.Create(auditCtx, &models.AuditLog{
			Action:     models.AuditActionCreate,
			Resource:   models.AuditResourceEvaluations,
			ResourceID: &change.EvaluationID,
			NewValues:  payload,
		})
		cancel()
		if err != nil {
			s.metrics.RecordDispatchFailure()
			s.logger.Warn("audit record write failed",
				zap.String("evaluation_id", change.EvaluationID), zap.Error(err))
		}
	}

	return nil
}

// LogNotificationSink is the default sink: it only records the notice in the
// application log.
type LogNotificationSink struct {
	logger *zap.Logger
}

// NewLogNotificationSink constructs the log-only sink.
func NewLogNotificationSink(logger *zap.Logger) *LogNotificationSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotificationSink{logger: logger}
}

// NotifyStatusChange logs the status change notice.
func (s *LogNotificationSink) NotifyStatusChange(_ context.Context, studentID string, status models.SAPStatus) error {
	s.logger.Info("sap_status_notification",
		zap.String("student_id", studentID),
		zap.String("status", string(status)),
	)
	return nil
}
