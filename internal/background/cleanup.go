package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RefreshTokenPurger removes sessions created before a cutoff
type RefreshTokenPurger interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupManager periodically removes refresh tokens older than the
// session lifetime. It is constructed and owned by main.
type CleanupManager struct {
	purger          RefreshTokenPurger
	logger          *slog.Logger
	interval        time.Duration
	sessionLifetime time.Duration
	now             func() time.Time

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	purger RefreshTokenPurger,
	logger *slog.Logger,
	interval time.Duration,
	sessionLifetime time.Duration,
) *CleanupManager {
	return &CleanupManager{
		purger:          purger,
		logger:          logger,
		interval:        interval,
		sessionLifetime: sessionLifetime,
		now:             time.Now,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start runs the periodic cleanup until Stop is called or ctx is done.
// It blocks; run it in its own goroutine.
func (cm *CleanupManager) Start(ctx context.Context) {
	defer close(cm.doneCh)

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

// runCleanup removes expired refresh tokens from the database
func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := cm.now().UTC().Add(-cm.sessionLifetime)
	rowsDeleted, err := cm.purger.DeleteCreatedBefore(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to purge expired refresh tokens", slog.Any("error", err))
		return
	}

	if rowsDeleted > 0 {
		cm.logger.Info("expired refresh tokens purged", slog.Int64("rows_deleted", rowsDeleted))
	}
}

// Stop signals the cleanup manager to stop and waits for Start to return.
// It is safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
	<-cm.doneCh
}
