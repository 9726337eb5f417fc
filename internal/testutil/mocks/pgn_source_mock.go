package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPGNSource is a mock implementation of services.PGNSource
type MockPGNSource struct {
	mock.Mock
}

func (m *MockPGNSource) FetchPGN(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}
