package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/timmy/hdfsconnector/internal/domain"
)

// RunRepository handles export run journal operations.
type RunRepository struct {
	db *gorm.DB
}

// NewRunRepository creates a new RunRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *RunRepository: repository instance bound to db.
func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start records a run in the running state.
func (r *RunRepository) Start(ctx context.Context, run *domain.ExportRun) error {
	run.Status = domain.RunStatusRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// Finish stores the final status of a run.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - run: run previously passed to Start, with Status and results filled in.
// Returns:
//   - error: non-nil if the update fails.
func (r *RunRepository) Finish(ctx context.Context, run *domain.ExportRun) error {
	now := time.Now().UTC()
	run.CompletedAt = &now
	return r.db.WithContext(ctx).Save(run).Error
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*domain.ExportRun, error) {
	var run domain.ExportRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// ListByConnector returns the most recent runs of a connector, newest first.
func (r *RunRepository) ListByConnector(ctx context.Context, connectorID string, limit int) ([]domain.ExportRun, error) {
	var runs []domain.ExportRun
	err := r.db.WithContext(ctx).
		Where("connector_id = ?", connectorID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
