// Package noop provides notifiers that only log.
package noop

import (
	"context"

	"go.uber.org/zap"

	"helix/internal/domain"
)

// Notifier implements port.BatchNotifier and port.ChangeNotifier by logging.
type Notifier struct {
	logger *zap.Logger
}

// NewNotifier creates a logging notifier.
func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{logger: logger.Named("notify")}
}

func (n *Notifier) NotifyBatch(_ context.Context, batch *domain.BatchResult) error {
	n.logger.Info("[NOOP NOTIFY] batch summary",
		zap.String("batch_id", batch.ID),
		zap.String("operator", batch.Operator),
		zap.String("email", batch.Email),
		zap.String("routing_code", batch.Routing.String()),
		zap.Int("succeeded", batch.Succeeded),
		zap.Int("failed", batch.Failed),
		zap.Int("skipped", batch.Skipped))
	return nil
}

func (n *Notifier) DataChanged(_ context.Context, batch *domain.BatchResult) {
	n.logger.Info("[NOOP NOTIFY] data changed",
		zap.String("batch_id", batch.ID),
		zap.Int("succeeded", batch.Succeeded))
}
