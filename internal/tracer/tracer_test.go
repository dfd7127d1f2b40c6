package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Setup(ctx, "noop")
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))

	shutdown, err = Setup(ctx, "stdout")
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))

	_, err = Setup(ctx, "jaeger")
	assert.Error(t, err)

	// leave the global provider as noop for other tests
	_, err = Setup(ctx, "")
	require.NoError(t, err)
}

func TestSpanHelpers(t *testing.T) {
	_, err := Setup(context.Background(), "noop")
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "iwc.REQUEST_ADDRESS")
	span.SetAttributes(StringAttr("iwc.action", "REQUEST_ADDRESS"))
	RecordError(span, errors.New("denied"))
	SetOK(span)
	span.End()
}
