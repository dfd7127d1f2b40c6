package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func TestRedisService_URLAndAddr(t *testing.T) {
	mr := miniredis.RunT(t)

	for _, target := range []string{"redis://" + mr.Addr(), mr.Addr()} {
		svc := NewRedisService(target, testLogger())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		assert.NoError(t, svc.Ping(ctx), target)
		assert.NoError(t, svc.WaitForConnection(ctx), target)
		cancel()

		assert.NotNil(t, svc.GetClient())
		assert.NoError(t, svc.Close())
	}
}

func TestRedisService_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	svc := NewRedisService(mr.Addr(), testLogger())
	defer func() { _ = svc.Close() }()

	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, svc.Ping(ctx))
	// cancelled context ends the retry loop early
	assert.Error(t, svc.WaitForConnection(ctx))
}
