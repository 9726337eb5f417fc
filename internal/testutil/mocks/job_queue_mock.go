package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueEnrichment() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueImport(platform, username string) error {
	args := m.Called(platform, username)
	return args.Error(0)
}
