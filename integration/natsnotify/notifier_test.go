package natsnotify_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawahiro39/online-status-trygreen/integration/natsnotify"
	"github.com/kawahiro39/online-status-trygreen/pkg/presence"
)

type message struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []message
	err      error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message{subject: subject, data: data})
	return nil
}

func (p *fakePublisher) all() []message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]message(nil), p.messages...)
}

func TestNotifier_Notify(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	n := natsnotify.NewNotifier(pub, "presence.event", nil)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n.Notify(context.Background(), presence.Change{
		Seq:      7,
		Kind:     presence.ChangeJoin,
		ClientID: "c-1",
		UID:      "u-1",
		Path:     "/home",
		At:       at,
	})

	msgs := pub.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "presence.event.join", msgs[0].subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].data, &got))
	assert.Equal(t, map[string]any{
		"seq":      float64(7),
		"kind":     "join",
		"clientId": "c-1",
		"uid":      "u-1",
		"path":     "/home",
		"at":       "2024-05-01T12:00:00Z",
	}, got)
}

func TestNotifier_Subject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		want   string
	}{
		{"presence.event", "presence.event.leave"},
		{"custom.", "custom.leave"},
		{"  ", "presence.event.leave"},
	}

	for _, tt := range tests {
		n := natsnotify.NewNotifier(&fakePublisher{}, tt.prefix, nil)
		assert.Equal(t, tt.want, n.Subject(presence.ChangeLeave), "prefix %q", tt.prefix)
	}
}

func TestNotifier_PublishErrorIsSwallowed(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("connection closed")}
	n := natsnotify.NewNotifier(pub, "", nil)

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), presence.Change{Kind: presence.ChangeExpire, ClientID: "c"})
	})
}

func TestNotifier_WithStore(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	store := presence.NewStore(presence.WithNotifier(natsnotify.NewNotifier(pub, "presence.event", nil)))
	ctx := context.Background()

	_, err := store.Touch(ctx, presence.Event{UID: "u", ClientID: "c", Path: "/a"})
	require.NoError(t, err)
	_, err = store.Touch(ctx, presence.Event{UID: "u", ClientID: "c", Path: "/b"})
	require.NoError(t, err)
	store.Remove(ctx, presence.Event{ClientID: "c"})

	var subjects []string
	for _, m := range pub.all() {
		subjects = append(subjects, m.subject)
	}
	assert.Equal(t, []string{"presence.event.join", "presence.event.move", "presence.event.leave"}, subjects)
}
