package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/iwc-bridge/internal/bridge"
	"github.com/jwebster45206/iwc-bridge/internal/logger"
	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
)

const (
	maxMessageSize = 64 * 1024
	writeTimeout   = 10 * time.Second
)

// ErrOriginMismatch is returned when a reply is addressed to an origin
// other than the one the session was opened from.
var ErrOriginMismatch = errors.New("target origin does not match session origin")

// BridgeFactory builds a bridge bound to one child session
type BridgeFactory func(poster bridge.Poster, logger *slog.Logger) *bridge.Bridge

// socketPoster writes replies to one websocket connection
type socketPoster struct {
	conn   *websocket.Conn
	origin string
	mu     sync.Mutex
}

func (p *socketPoster) PostMessage(_ context.Context, env iwc.Envelope, targetOrigin string) error {
	if targetOrigin != p.origin {
		return ErrOriginMismatch
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return p.conn.WriteJSON(env)
}

// GameSocketHandler serves the websocket transport. Each connection is
// one child session with its own bridge.
type GameSocketHandler struct {
	trustedOrigin string
	newBridge     BridgeFactory
	upgrader      websocket.Upgrader
	logger        *slog.Logger
}

// NewGameSocketHandler creates a websocket handler accepting connections
// from trustedOrigin only
func NewGameSocketHandler(trustedOrigin string, newBridge BridgeFactory, logger *slog.Logger) *GameSocketHandler {
	h := &GameSocketHandler{
		trustedOrigin: trustedOrigin,
		newBridge:     newBridge,
		logger:        logger,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return r.Header.Get("Origin") == h.trustedOrigin
		},
	}
	return h
}

// ServeHTTP upgrades the request and pumps messages into the bridge
// GET /v1/iwc/ws
func (h *GameSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != h.trustedOrigin {
		h.logger.Warn("Rejected websocket from untrusted origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusForbidden, "Origin not allowed.")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	sessionID := uuid.New()
	log := logger.WithSessionID(h.logger, sessionID.String())
	log.Info("Game socket connected", "remote_addr", r.RemoteAddr)

	poster := &socketPoster{conn: conn, origin: origin}
	b := h.newBridge(poster, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		b.Wait()
		if err := conn.Close(); err != nil {
			log.Debug("Failed to close websocket", "error", err)
		}
		log.Info("Game socket disconnected")
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("Game socket read failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		b.HandleMessage(ctx, bridge.MessageEvent{Origin: origin, Data: data})
	}
}
