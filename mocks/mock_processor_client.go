package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"helix/internal/port"
)

// MockProcessorClient is a mock implementation of port.ProcessorClient.
type MockProcessorClient struct {
	mock.Mock
}

func (m *MockProcessorClient) Upload(ctx context.Context, input port.ProcessorUploadInput) (*port.ProcessorUploadOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ProcessorUploadOutput), args.Error(1)
}

func (m *MockProcessorClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
