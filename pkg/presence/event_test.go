package presence_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawahiro39/online-status-trygreen/pkg/presence"
)

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	t.Run("decodes string fields", func(t *testing.T) {
		t.Parallel()

		ev, err := presence.DecodeEvent(strings.NewReader(`{"uid":"user-1","path":"/a","clientId":"c-1"}`))
		require.NoError(t, err)
		assert.Equal(t, presence.Event{UID: "user-1", Path: "/a", ClientID: "c-1", HasPath: true}, ev)
	})

	t.Run("missing fields are empty", func(t *testing.T) {
		t.Parallel()

		ev, err := presence.DecodeEvent(strings.NewReader(`{}`))
		require.NoError(t, err)
		assert.Equal(t, presence.Event{}, ev)
		assert.False(t, ev.HasPath)
	})

	t.Run("null fields are empty but path presence is kept", func(t *testing.T) {
		t.Parallel()

		ev, err := presence.DecodeEvent(strings.NewReader(`{"uid":null,"path":null,"clientId":null}`))
		require.NoError(t, err)
		assert.Empty(t, ev.UID)
		assert.Empty(t, ev.Path)
		assert.Empty(t, ev.ClientID)
		assert.True(t, ev.HasPath)
	})

	t.Run("coerces non-string values to their JSON text", func(t *testing.T) {
		t.Parallel()

		ev, err := presence.DecodeEvent(strings.NewReader(`{"uid":42,"path":true,"clientId":{"a": [1, 2]}}`))
		require.NoError(t, err)
		assert.Equal(t, "42", ev.UID)
		assert.Equal(t, "true", ev.Path)
		assert.Equal(t, `{"a":[1,2]}`, ev.ClientID)
	})

	t.Run("ignores unknown fields", func(t *testing.T) {
		t.Parallel()

		ev, err := presence.DecodeEvent(strings.NewReader(`{"clientId":"c","extra":1}`))
		require.NoError(t, err)
		assert.Equal(t, "c", ev.ClientID)
	})

	for name, body := range map[string]string{
		"array":           `[{"clientId":"c"}]`,
		"null":            `null`,
		"string":          `"clientId"`,
		"number":          `12`,
		"empty":           ``,
		"malformed":       `{"clientId":`,
		"trailing data":   `{"clientId":"c"} {}`,
		"not json at all": `clientId=c`,
	} {
		t.Run("rejects "+name, func(t *testing.T) {
			t.Parallel()

			_, err := presence.DecodeEvent(strings.NewReader(body))
			assert.ErrorIs(t, err, presence.ErrInvalidBody)
		})
	}

	t.Run("rejects oversized body", func(t *testing.T) {
		t.Parallel()

		body := `{"clientId":"` + strings.Repeat("x", presence.MaxEventSize) + `"}`
		_, err := presence.DecodeEvent(strings.NewReader(body))
		assert.ErrorIs(t, err, presence.ErrInvalidBody)
	})
}
