package storage

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of Storage for asserting call patterns.
type MockStorage struct {
	mock.Mock
}

var _ Storage = (*MockStorage)(nil)

func (m *MockStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(ObjectInfo), args.Error(1)
}

func (m *MockStorage) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
