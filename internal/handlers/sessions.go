package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/iwc-bridge/internal/bridge"
	"github.com/jwebster45206/iwc-bridge/internal/logger"
	"github.com/jwebster45206/iwc-bridge/internal/services/events"
	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
)

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// redisPoster publishes a session's replies for its SSE stream
type redisPoster struct {
	broadcaster *events.Broadcaster
	sessionID   uuid.UUID
	origin      string
}

func (p *redisPoster) PostMessage(ctx context.Context, env iwc.Envelope, targetOrigin string) error {
	if targetOrigin != p.origin {
		return ErrOriginMismatch
	}
	return p.broadcaster.Publish(ctx, p.sessionID, env)
}

// SessionsHandler serves the HTTP transport: requests are POSTed to a
// session inbox and replies stream back over SSE through Redis, so the
// two halves may land on different replicas.
type SessionsHandler struct {
	trustedOrigin string
	newBridge     BridgeFactory
	broadcaster   *events.Broadcaster
	logger        *slog.Logger
	inflight      sync.WaitGroup
}

// NewSessionsHandler creates a new sessions handler
func NewSessionsHandler(trustedOrigin string, newBridge BridgeFactory, broadcaster *events.Broadcaster, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		trustedOrigin: trustedOrigin,
		newBridge:     newBridge,
		broadcaster:   broadcaster,
		logger:        logger,
	}
}

// ServeHTTP routes session requests
// Routes:
// POST /v1/iwc/sessions               - Open a session
// POST /v1/iwc/sessions/{id}/messages - Deliver one envelope
// GET  /v1/iwc/sessions/{id}/events   - Stream replies (SSE)
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", h.trustedOrigin)
		w.Header().Set("Vary", "Origin")
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/iwc/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		writeError(w, h.logger, http.StatusNotFound, "Invalid path. Expected /v1/iwc/sessions/{id}/messages or /v1/iwc/sessions/{id}/events")
		return
	}

	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format.")
		return
	}
	log := logger.WithSessionID(h.logger, sessionID.String())

	switch {
	case parts[1] == "messages" && r.Method == http.MethodPost:
		h.handleMessage(w, r, sessionID, log)
	case parts[1] == "events" && r.Method == http.MethodGet:
		streamEvents(w, r, h.broadcaster, sessionID, log)
	case parts[1] == "messages" || parts[1] == "events":
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed.")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown session resource.")
	}
}

func (h *SessionsHandler) handleCreate(w http.ResponseWriter) {
	sessionID := uuid.New()
	h.logger.Info("Session opened", "session_id", sessionID.String())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(SessionResponse{SessionID: sessionID.String()}); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

// handleMessage feeds one envelope to a bridge bound to the session. The
// reply is published asynchronously, so the request returns 202 whether or
// not the envelope was accepted; dropped messages are indistinguishable
// from accepted ones to the sender.
func (h *SessionsHandler) handleMessage(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, log *slog.Logger) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		log.Warn("Failed to read message body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read request body.")
		return
	}

	poster := &redisPoster{broadcaster: h.broadcaster, sessionID: sessionID, origin: h.trustedOrigin}
	b := h.newBridge(poster, log)

	// The reply outlives this request
	ctx := context.WithoutCancel(r.Context())
	if b.HandleMessage(ctx, bridge.MessageEvent{Origin: r.Header.Get("Origin"), Data: data}) {
		h.inflight.Add(1)
		go func() {
			defer h.inflight.Done()
			b.Wait()
		}()
	}

	w.WriteHeader(http.StatusAccepted)
}

// Wait blocks until every accepted message has published its reply
func (h *SessionsHandler) Wait() {
	h.inflight.Wait()
}
