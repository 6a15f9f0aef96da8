package natsnotify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawahiro39/online-status-trygreen/integration/natsnotify"
)

func TestConnect_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := natsnotify.Connect(natsnotify.Config{}, nil)
	assert.ErrorIs(t, err, natsnotify.ErrEmptyConnectionURL)
	assert.False(t, natsnotify.Config{}.Enabled())
}

func TestConnect_UnreachableServerRetriesInBackground(t *testing.T) {
	t.Parallel()

	nc, err := natsnotify.Connect(natsnotify.Config{
		URL:           "nats://127.0.0.1:1",
		ClientName:    "test",
		ReconnectWait: time.Hour,
	}, nil)
	require.NoError(t, err)
	defer nc.Close()

	assert.ErrorIs(t, natsnotify.Healthcheck(context.Background(), nc), natsnotify.ErrHealthcheckFailed)
}

func TestHealthcheck_NilConnection(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, natsnotify.Healthcheck(context.Background(), nil), natsnotify.ErrHealthcheckFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, natsnotify.Healthcheck(ctx, nil), context.Canceled)
}

func TestDrain_NilConnection(t *testing.T) {
	t.Parallel()

	assert.NoError(t, natsnotify.Drain(nil, time.Second))
}
