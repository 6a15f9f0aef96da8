package onlinestatus_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawahiro39/online-status-trygreen/app/onlinestatus"
	"github.com/kawahiro39/online-status-trygreen/core/logger"
	"github.com/kawahiro39/online-status-trygreen/pkg/presence"
)

const testOrigin = "https://solar-system-82998.bubbleapps.io"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testApp struct {
	t     *testing.T
	app   *onlinestatus.App
	clock *fakeClock
}

func newTestApp(t *testing.T, mutate ...func(*onlinestatus.Config)) *testApp {
	t.Helper()

	cfg := onlinestatus.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	clock := newFakeClock()
	app, err := onlinestatus.NewApp(cfg,
		onlinestatus.WithLogger(logger.Discard()),
		onlinestatus.WithStoreOptions(presence.WithClock(clock.Now)),
	)
	require.NoError(t, err)

	return &testApp{t: t, app: app, clock: clock}
}

func (ta *testApp) do(method, path, body string) *httptest.ResponseRecorder {
	ta.t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ta.app.Handler().ServeHTTP(w, req)
	return w
}

func (ta *testApp) post(path string, payload any) *httptest.ResponseRecorder {
	ta.t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(ta.t, err)
	return ta.do(http.MethodPost, path, string(data))
}

func (ta *testApp) summary() presence.Summary {
	ta.t.Helper()

	w := ta.do(http.MethodGet, onlinestatus.PathSummary, "")
	require.Equal(ta.t, http.StatusOK, w.Code)

	var body struct {
		OK bool `json:"ok"`
		presence.Summary
	}
	require.NoError(ta.t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(ta.t, body.OK)
	return body.Summary
}

func findUser(s presence.Summary, uid string) *presence.Presence {
	for _, list := range [][]presence.Presence{s.Active, s.Idle} {
		for i := range list {
			if list[i].UID == uid {
				return &list[i]
			}
		}
	}
	return nil
}

type ping map[string]any

func TestPresenceLifecycleOverHTTP(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	uid := "user-123"

	for _, p := range []ping{
		{"uid": uid, "path": "/test", "clientId": "client-a"},
		{"uid": uid, "path": "Test/", "clientId": "client-b"},
		{"uid": uid, "path": " /tette/ ", "clientId": "client-c"},
	} {
		w := ta.post(onlinestatus.PathPing, p)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	}

	user := findUser(ta.summary(), uid)
	require.NotNil(t, user)
	assert.Equal(t, []string{"/test", "/tette"}, user.Paths)

	leave := func(clientID string, wantDeleted int) {
		w := ta.post(onlinestatus.PathLeave, ping{"uid": uid, "clientId": clientID})
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			OK      bool `json:"ok"`
			Deleted int  `json:"deleted"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.OK)
		assert.Equal(t, wantDeleted, body.Deleted)
	}

	leave("client-c", 1)
	user = findUser(ta.summary(), uid)
	require.NotNil(t, user)
	assert.Equal(t, []string{"/test"}, user.Paths)

	leave("client-a", 1)
	user = findUser(ta.summary(), uid)
	require.NotNil(t, user)
	assert.Equal(t, []string{"/test"}, user.Paths)

	leave("client-b", 1)
	s := ta.summary()
	assert.Nil(t, findUser(s, uid))
	assert.Empty(t, s.Active)
	assert.Empty(t, s.Idle)

	leave("client-b", 0)
}

func TestSummaryEncodesEmptyBuckets(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	w := ta.do(http.MethodGet, onlinestatus.PathSummary, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"active":[],"idle":[]}`, w.Body.String())
}

func TestHitBehavesLikePing(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	w := ta.post(onlinestatus.PathHit, ping{"uid": "u", "path": "/Shop/", "clientId": "c"})
	require.Equal(t, http.StatusOK, w.Code)

	s := ta.summary()
	require.Len(t, s.Active, 1)
	assert.Equal(t, presence.Presence{UID: "u", Paths: []string{"/shop"}}, s.Active[0])
}

func TestTouchValidation(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	tests := []struct {
		name string
		path string
		body string
		code string
	}{
		{"missing client id", onlinestatus.PathPing, `{"uid":"u","path":"/a"}`, "invalid_clientId"},
		{"blank client id", onlinestatus.PathHit, `{"clientId":"   "}`, "invalid_clientId"},
		{"array body", onlinestatus.PathPing, `[{"clientId":"c"}]`, "invalid_body"},
		{"null body", onlinestatus.PathPing, `null`, "invalid_body"},
		{"malformed body", onlinestatus.PathPing, `{"clientId":`, "invalid_body"},
		{"empty body", onlinestatus.PathPing, ``, "invalid_body"},
		{"leave with array body", onlinestatus.PathLeave, `[]`, "invalid_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ta.do(http.MethodPost, tt.path, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"ok":false,"error":"`+tt.code+`"}`, w.Body.String())
		})
	}

	assert.Zero(t, ta.app.Store().Len())
}

func TestLeaveWithBlankClientIDSucceeds(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	w := ta.post(onlinestatus.PathLeave, ping{"uid": "u"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"deleted":0}`, w.Body.String())
}

func TestSendBeaconTextBodyIsAccepted(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, onlinestatus.PathLeave, strings.NewReader(`{"clientId":"c"}`))
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	w := httptest.NewRecorder()
	ta.app.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTombstonedPingIsIgnored(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	require.Equal(t, http.StatusOK, ta.post(onlinestatus.PathPing, ping{"uid": "u", "clientId": "c"}).Code)
	require.Equal(t, http.StatusOK, ta.post(onlinestatus.PathLeave, ping{"clientId": "c"}).Code)

	w := ta.post(onlinestatus.PathPing, ping{"uid": "u", "clientId": "c"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"ignored":"tombstoned"}`, w.Body.String())
	assert.Nil(t, findUser(ta.summary(), "u"))

	ta.clock.Advance(presence.DefaultTombstoneTTL)

	w = ta.post(onlinestatus.PathPing, ping{"uid": "u", "clientId": "c"})
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.NotNil(t, findUser(ta.summary(), "u"))
}

func TestActiveIdleAndExpiry(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	require.Equal(t, http.StatusOK, ta.post(onlinestatus.PathPing, ping{"uid": "u", "path": "/a", "clientId": "c"}).Code)

	ta.clock.Advance(31 * time.Second)
	s := ta.summary()
	assert.Empty(t, s.Active)
	require.Len(t, s.Idle, 1)

	ta.clock.Advance(150 * time.Second)
	w := ta.do(http.MethodGet, onlinestatus.PathHealthz, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"sessions":0}`, w.Body.String())
}

func TestHealthzCountsSessions(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.post(onlinestatus.PathPing, ping{"clientId": "a"})
	ta.post(onlinestatus.PathPing, ping{"clientId": "b"})

	w := ta.do(http.MethodGet, onlinestatus.PathHealthz, "")
	assert.JSONEq(t, `{"ok":true,"sessions":2}`, w.Body.String())
}

func TestDebugSessions(t *testing.T) {
	t.Parallel()

	t.Run("available outside production", func(t *testing.T) {
		t.Parallel()

		ta := newTestApp(t)
		ta.post(onlinestatus.PathPing, ping{"uid": "u", "path": "/a", "clientId": "c"})

		w := ta.do(http.MethodGet, onlinestatus.PathDebug, "")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Size     int                    `json:"size"`
			Sessions []presence.SessionInfo `json:"sessions"`
			Stats    presence.Stats         `json:"stats"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Size)
		require.Len(t, body.Sessions, 1)
		assert.Equal(t, "/a", body.Sessions[0].Path)
		assert.EqualValues(t, 1, body.Stats.SessionsCreated)
	})

	t.Run("hidden in production", func(t *testing.T) {
		t.Parallel()

		ta := newTestApp(t, func(cfg *onlinestatus.Config) { cfg.Env = "production" })

		w := ta.do(http.MethodGet, onlinestatus.PathDebug, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"ok":false,"error":"not_found"}`, w.Body.String())
	})
}

func TestRoutingErrors(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	w := ta.do(http.MethodGet, onlinestatus.PathPing, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "POST", w.Header().Get("Allow"))
	assert.JSONEq(t, `{"ok":false,"error":"method_not_allowed"}`, w.Body.String())

	w = ta.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, onlinestatus.PathPing, bytes.NewBufferString(`{"clientId":"c"}`))
		req.Header.Set("Origin", testOrigin)
		w := httptest.NewRecorder()
		ta.app.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "GET,POST,OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, onlinestatus.PathSummary, nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		ta.app.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET,POST,OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, onlinestatus.PathLeave, nil)
		req.Header.Set("Origin", testOrigin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		ta.app.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestProbes(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, func(cfg *onlinestatus.Config) { cfg.SweepInterval = 0 })

	w := ta.do(http.MethodGet, onlinestatus.PathLiveness, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ta.do(http.MethodGet, onlinestatus.PathReadiness, "")
	assert.Equal(t, http.StatusOK, w.Code, "a disabled sweeper is not a failure")

	ta = newTestApp(t)
	w = ta.do(http.MethodGet, onlinestatus.PathReadiness, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "sweeper configured but not started")
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*onlinestatus.Config)
	}{
		{"zero active window", func(c *onlinestatus.Config) { c.ActiveWindow = 0 }},
		{"close shorter than active", func(c *onlinestatus.Config) { c.CloseWindow = 10 * time.Second }},
		{"negative sweep", func(c *onlinestatus.Config) { c.SweepInterval = -time.Second }},
		{"zero tombstone", func(c *onlinestatus.Config) { c.TombstoneTTL = 0 }},
		{"zero stream interval", func(c *onlinestatus.Config) { c.StreamInterval = 0 }},
		{"rate limit without refill", func(c *onlinestatus.Config) { c.RateLimit.Capacity = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := onlinestatus.DefaultConfig()
			tt.mutate(&cfg)
			_, err := onlinestatus.NewApp(cfg, onlinestatus.WithLogger(logger.Discard()))
			assert.ErrorIs(t, err, onlinestatus.ErrInvalidConfig)
		})
	}

	assert.NoError(t, onlinestatus.DefaultConfig().Validate())
	assert.False(t, onlinestatus.DefaultConfig().IsProduction())
}

func TestNilOptions(t *testing.T) {
	t.Parallel()

	_, err := onlinestatus.NewApp(onlinestatus.DefaultConfig(), onlinestatus.WithLogger(nil))
	assert.ErrorIs(t, err, onlinestatus.ErrNilOption)

	_, err = onlinestatus.NewApp(onlinestatus.DefaultConfig(), onlinestatus.WithStore(nil))
	assert.ErrorIs(t, err, onlinestatus.ErrNilOption)
}

func TestBeaconRateLimit(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, func(cfg *onlinestatus.Config) {
		cfg.RateLimit.Capacity = 2
		cfg.RateLimit.RefillRate = 2
	})

	assert.Equal(t, http.StatusOK, ta.post(onlinestatus.PathPing, ping{"clientId": "c"}).Code)
	assert.Equal(t, http.StatusOK, ta.post(onlinestatus.PathHit, ping{"clientId": "c"}).Code)

	w := ta.post(onlinestatus.PathLeave, ping{"clientId": "c"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"ok":false,"error":"rate_limited"}`, w.Body.String())

	// reads are not limited
	assert.Equal(t, http.StatusOK, ta.do(http.MethodGet, onlinestatus.PathSummary, "").Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	cfg := onlinestatus.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	app, err := onlinestatus.NewApp(cfg, onlinestatus.WithLogger(logger.Discard()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case <-app.Server().Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}
	require.Eventually(t, app.Store().IsRunning, time.Second, 5*time.Millisecond)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: time.Second}
	url := "http://" + app.Server().Addr() + onlinestatus.PathHealthz

	resp, err := client.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.False(t, app.Store().IsRunning())
	_, err = client.Get(url)
	assert.Error(t, err)
}
