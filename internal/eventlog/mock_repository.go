package eventlog

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Append(ctx context.Context, eventType string, accountID *string, payload, metadata map[string]any) error {
	args := m.Called(ctx, eventType, accountID, payload, metadata)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, filter Query) ([]Entry, error) {
	args := m.Called(ctx, filter)
	if events := args.Get(0); events != nil {
		return events.([]Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Prune(ctx context.Context, retentionDays int) (int64, error) {
	args := m.Called(ctx, retentionDays)
	return args.Get(0).(int64), args.Error(1)
}
