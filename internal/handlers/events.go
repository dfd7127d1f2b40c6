package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/iwc-bridge/internal/services/events"
)

const keepaliveInterval = 30 * time.Second

// streamEvents relays a session's replies from Redis to the client as
// Server-Sent Events until the client goes away.
// GET /v1/iwc/sessions/{id}/events
func streamEvents(w http.ResponseWriter, r *http.Request, broadcaster *events.Broadcaster, sessionID uuid.UUID, logger *slog.Logger) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	pubsub := broadcaster.Subscribe(r.Context(), sessionID)
	defer func() {
		if err := pubsub.Close(); err != nil {
			logger.Error("Failed to close pubsub", "error", err)
		}
	}()

	// Wait for the subscription so no reply published after "connected" is missed
	if _, err := pubsub.Receive(r.Context()); err != nil {
		logger.Error("Failed to subscribe to replies", "error", err)
		writeError(w, logger, http.StatusServiceUnavailable, "Event stream unavailable.")
		return
	}

	logger.Info("SSE connection established", "remote_addr", r.RemoteAddr)

	msgChan := pubsub.Channel()

	keepaliveTicker := time.NewTicker(keepaliveInterval)
	defer keepaliveTicker.Stop()

	sendSSE(w, logger, "connected", map[string]any{
		"session_id": sessionID.String(),
	})

	for {
		select {
		case <-r.Context().Done():
			logger.Info("SSE client disconnected")
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			env, err := events.Decode(msg.Payload)
			if err != nil {
				logger.Error("Failed to decode reply", "error", err, "payload", msg.Payload)
				continue
			}
			sendSSE(w, logger, "message", env)

		case <-keepaliveTicker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				logger.Error("Failed to write keepalive", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// sendSSE sends a Server-Sent Event to the client
func sendSSE(w http.ResponseWriter, logger *slog.Logger, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		logger.Error("Failed to write event", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
