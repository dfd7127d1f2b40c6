package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/iwc-bridge/internal/services/events"
	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessions(t *testing.T) (*SessionsHandler, *events.Broadcaster, *httptest.Server) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	broadcaster := events.NewBroadcaster(client, testLogger())
	h := NewSessionsHandler(testOrigin, challengeFactory(), broadcaster, testLogger())
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return h, broadcaster, server
}

func postEnvelope(t *testing.T, url, origin string, env iwc.Envelope) *http.Response {
	t.Helper()
	body, err := json.Marshal(env)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(string(body)))
	require.NoError(t, err)
	req.Header.Set("Origin", origin)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

// readEvent returns the next SSE event name and data, skipping comments
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if name != "" {
				return name, data
			}
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestSessionsHandler_Create(t *testing.T) {
	_, _, server := setupSessions(t)

	resp, err := http.Post(server.URL+"/v1/iwc/sessions", "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var session SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	_, err = uuid.Parse(session.SessionID)
	assert.NoError(t, err)
}

func TestSessionsHandler_MessageRepliesOverSSE(t *testing.T) {
	h, _, server := setupSessions(t)
	sessionID := uuid.New()
	base := server.URL + "/v1/iwc/sessions/" + sessionID.String()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/events", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = stream.Body.Close() }()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	reader := bufio.NewReader(stream.Body)
	name, data := readEvent(t, reader)
	require.Equal(t, "connected", name)
	assert.Contains(t, data, sessionID.String())

	resp := postEnvelope(t, base+"/messages", testOrigin, iwc.NewEnvelope(iwc.ActionRequestChallenge, map[string]any{"address": "0x1"}))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	h.Wait()

	name, data = readEvent(t, reader)
	require.Equal(t, "message", name)
	env, err := iwc.Decode([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, iwc.ActionGrantedChallenge, env.Action)
	assert.Equal(t, "xyz", env.String("nonce"))
}

func TestSessionsHandler_DropsUntrustedOrigin(t *testing.T) {
	h, broadcaster, server := setupSessions(t)
	sessionID := uuid.New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub := broadcaster.Subscribe(ctx, sessionID)
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	url := server.URL + "/v1/iwc/sessions/" + sessionID.String() + "/messages"
	resp := postEnvelope(t, url, "https://evil.example", iwc.NewEnvelope(iwc.ActionRequestAddress, nil))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	h.Wait()

	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected reply published: %s", msg.Payload)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSessionsHandler_BadRequests(t *testing.T) {
	_, _, server := setupSessions(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"list sessions", http.MethodGet, "/v1/iwc/sessions", http.StatusMethodNotAllowed},
		{"bad id", http.MethodPost, "/v1/iwc/sessions/not-a-uuid/messages", http.StatusBadRequest},
		{"unknown resource", http.MethodGet, "/v1/iwc/sessions/" + uuid.NewString() + "/state", http.StatusNotFound},
		{"get messages", http.MethodGet, "/v1/iwc/sessions/" + uuid.NewString() + "/messages", http.StatusMethodNotAllowed},
		{"too deep", http.MethodGet, "/v1/iwc/sessions/a/b/c", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, server.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.status, resp.StatusCode)
			var errResp ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}
}
