package issues

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AwardWorkerConfig configures the background award pass.
type AwardWorkerConfig struct {
	Schedule      string
	BatchSize     int
	MaxConcurrent int
}

// DefaultAwardWorkerConfig returns default configuration.
func DefaultAwardWorkerConfig() AwardWorkerConfig {
	return AwardWorkerConfig{
		Schedule:      "@every 10m",
		BatchSize:     100,
		MaxConcurrent: 4,
	}
}

// AwardWorker periodically issues certificates for completed enrollments
// on templates with auto-award enabled.
type AwardWorker struct {
	db      *sqlx.DB
	service *Service
	config  AwardWorkerConfig
	logger  *zap.Logger
	cron    *cron.Cron
	mu      sync.Mutex
	running bool

	// pending resolves the batch for one pass. A field so tests can feed
	// a pass without a database.
	pending func(ctx context.Context, limit int) ([]pendingAward, error)
}

func NewAwardWorker(db *sqlx.DB, service *Service, config AwardWorkerConfig, logger *zap.Logger) *AwardWorker {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultAwardWorkerConfig().BatchSize
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultAwardWorkerConfig().MaxConcurrent
	}
	w := &AwardWorker{
		db:      db,
		service: service,
		config:  config,
		logger:  logger,
		cron:    cron.New(),
	}
	w.pending = w.queryPendingAwards
	return w
}

// Start schedules the award pass and runs one immediately.
func (w *AwardWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("award worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("Starting award worker", zap.String("schedule", w.config.Schedule))

	if _, err := w.cron.AddFunc(w.config.Schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule award pass: %w", err)
	}
	w.cron.Start()

	w.RunOnce(ctx)
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish.
func (w *AwardWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	<-w.cron.Stop().Done()
	w.logger.Info("Award worker stopped")
}

type pendingAward struct {
	TemplateID uuid.UUID `db:"template_id"`
	UserID     uuid.UUID `db:"user_id"`
	CourseID   uuid.UUID `db:"course_id"`
}

// RunOnce executes a single award pass.
func (w *AwardWorker) RunOnce(ctx context.Context) {
	pending, err := w.pending(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("Failed to query pending awards", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		return
	}

	w.logger.Info("Processing pending awards", zap.Int("count", len(pending)))

	sem := make(chan struct{}, w.config.MaxConcurrent)
	var wg sync.WaitGroup
	for _, p := range pending {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(p pendingAward) {
			defer wg.Done()
			defer func() { <-sem }()
			w.award(ctx, p)
		}(p)
	}
	wg.Wait()
}

func (w *AwardWorker) award(ctx context.Context, p pendingAward) {
	issue, err := w.service.AutoIssue(ctx, p.TemplateID, p.UserID, p.CourseID)
	if err != nil {
		var dup *DuplicateIssueError
		if errors.As(err, &dup) {
			// Lost a race with a manual issue; nothing to do.
			return
		}
		w.logger.Error("Auto award failed",
			zap.String("template_id", p.TemplateID.String()),
			zap.String("user_id", p.UserID.String()),
			zap.Error(err))
		return
	}
	// The rendered document goes out through the platform mailer; the
	// ledger records delivery here.
	if err := w.service.repo.MarkEmailed(ctx, issue.ID, w.service.now().UTC()); err != nil {
		w.logger.Error("Failed to mark issue emailed",
			zap.String("issue_id", issue.ID.String()),
			zap.Error(err))
	}
	w.logger.Info("Certificate auto-awarded",
		zap.String("issue_id", issue.ID.String()),
		zap.String("template_id", p.TemplateID.String()),
		zap.String("user_id", p.UserID.String()))
}

// queryPendingAwards finds completed enrollments on auto-award templates
// with no active issue yet.
func (w *AwardWorker) queryPendingAwards(ctx context.Context, limit int) ([]pendingAward, error) {
	query := `
		SELECT t.id AS template_id, e.user_id, e.course_id
		FROM cert_templates t
		JOIN enrollments e ON e.course_id = t.course_id
		WHERE t.auto_award = true
		  AND e.completed_at IS NOT NULL
		  AND NOT EXISTS (
			SELECT 1 FROM cert_issues i
			WHERE i.template_id = t.id
			  AND i.user_id = e.user_id
			  AND i.revoked_at IS NULL
		  )
		ORDER BY e.completed_at
		LIMIT $1`

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pending []pendingAward
	if err := w.db.SelectContext(ctx, &pending, query, limit); err != nil {
		return nil, fmt.Errorf("query pending awards: %w", err)
	}
	return pending, nil
}
