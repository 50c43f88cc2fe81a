package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"helix/internal/domain"
)

// MockBatchNotifier is a mock implementation of port.BatchNotifier.
type MockBatchNotifier struct {
	mock.Mock
}

func (m *MockBatchNotifier) NotifyBatch(ctx context.Context, batch *domain.BatchResult) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

// MockChangeNotifier is a mock implementation of port.ChangeNotifier.
type MockChangeNotifier struct {
	mock.Mock
}

func (m *MockChangeNotifier) DataChanged(ctx context.Context, batch *domain.BatchResult) {
	m.Called(ctx, batch)
}
