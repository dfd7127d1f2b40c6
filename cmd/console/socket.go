package main

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/iwc-bridge/pkg/iwc"
)

// bridgeSocket is the console's end of the game socket
type bridgeSocket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type replyMsg struct {
	env iwc.Envelope
}

type disconnectedMsg struct {
	err error
}

// socketURL turns the bridge base URL into the websocket endpoint
func socketURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/v1/iwc/ws"
}

func dialBridge(cfg *ConsoleConfig) (*bridgeSocket, error) {
	header := http.Header{}
	header.Set("Origin", cfg.Origin)

	conn, resp, err := websocket.DefaultDialer.Dial(socketURL(cfg.BridgeURL), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("bridge refused the socket (status %d): %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return &bridgeSocket{conn: conn}, nil
}

func (s *bridgeSocket) Send(env iwc.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(env)
}

func (s *bridgeSocket) Close() error {
	return s.conn.Close()
}

// readLoop forwards every reply to the program until the socket closes
func (s *bridgeSocket) readLoop(p *tea.Program) {
	for {
		var env iwc.Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			p.Send(disconnectedMsg{err: err})
			return
		}
		p.Send(replyMsg{env: env})
	}
}

// sendEnvelope is the tea.Cmd that writes one request
func (m ConsoleUI) sendEnvelope(env iwc.Envelope) tea.Cmd {
	return func() tea.Msg {
		if err := m.socket.Send(env); err != nil {
			return disconnectedMsg{err: err}
		}
		return nil
	}
}
