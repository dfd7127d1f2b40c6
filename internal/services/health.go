package services

import (
	"context"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// PubSub is the Redis connection the SSE transport fans replies out through
type PubSub interface {
	HealthChecker
	Closer

	// WaitForConnection waits for the server to be available with retries
	WaitForConnection(ctx context.Context) error
}
