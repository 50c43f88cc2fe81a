package port

import (
	"context"

	"helix/internal/domain"
)

// BatchNotifier reports a finished batch to the operator out of band.
type BatchNotifier interface {
	NotifyBatch(ctx context.Context, batch *domain.BatchResult) error
}

// ChangeNotifier tells the dashboard that processed data changed. Delivery is
// fire-and-forget; implementations must not block the caller on the network.
type ChangeNotifier interface {
	DataChanged(ctx context.Context, batch *domain.BatchResult)
}
