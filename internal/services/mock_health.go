package services

import (
	"context"
	"sync"
)

// MockPubSub is a mock implementation of PubSub for testing
type MockPubSub struct {
	PingFunc              func(ctx context.Context) error
	CloseFunc             func() error
	WaitForConnectionFunc func(ctx context.Context) error

	// Track calls for testing
	mu         sync.Mutex
	PingCalls  int
	CloseCalls int
}

// NewMockPubSub creates a new mock whose calls all succeed
func NewMockPubSub() *MockPubSub {
	return &MockPubSub{}
}

// Ping mocks connection ping
func (m *MockPubSub) Ping(ctx context.Context) error {
	m.mu.Lock()
	m.PingCalls++
	m.mu.Unlock()

	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Close mocks connection close
func (m *MockPubSub) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	m.mu.Unlock()

	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// WaitForConnection mocks connection waiting
func (m *MockPubSub) WaitForConnection(ctx context.Context) error {
	if m.WaitForConnectionFunc != nil {
		return m.WaitForConnectionFunc(ctx)
	}
	return nil
}

// SetPingError sets up the mock to return an error on Ping
func (m *MockPubSub) SetPingError(err error) {
	m.PingFunc = func(ctx context.Context) error {
		return err
	}
}

// SetPingSuccess sets up the mock to return success on Ping
func (m *MockPubSub) SetPingSuccess() {
	m.PingFunc = func(ctx context.Context) error {
		return nil
	}
}

// Ensure MockPubSub implements PubSub interface
var _ PubSub = (*MockPubSub)(nil)
