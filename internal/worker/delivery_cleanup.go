package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/patient-companion/internal/repository"
	"github.com/jwalitptl/patient-companion/pkg/logger"
)

// DeliveryCleanupWorker prunes delivery history older than the retention window.
type DeliveryCleanupWorker struct {
	repo            repository.DeliveryRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

func NewDeliveryCleanupWorker(repo repository.DeliveryRepository, retention, cleanupInterval time.Duration, log *logger.Logger) *DeliveryCleanupWorker {
	return &DeliveryCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          log,
		now:             time.Now,
	}
}

func (w *DeliveryCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Failed to clean up deliveries")
			}
		}
	}
}

func (w *DeliveryCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup deliveries: %w", err)
	}

	w.logger.Info("Cleaned up deliveries", "rows", rows, "cutoff", cutoff)
	return rows, nil
}
