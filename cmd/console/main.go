package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

type ConsoleConfig struct {
	BridgeURL string
	Origin    string
}

func main() {
	cfg := &ConsoleConfig{}
	pflag.StringVarP(&cfg.BridgeURL, "url", "u", getEnv("BRIDGE_URL", "http://localhost:8080"), "bridge base URL")
	pflag.StringVarP(&cfg.Origin, "origin", "o", getEnv("TRUSTED_ORIGIN", "https://campaign-game.vercel.app"), "origin to present to the bridge")
	pflag.Parse()

	if !testConnection(cfg.BridgeURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to the bridge at %s. Please ensure it is running.\n", cfg.BridgeURL)
		os.Exit(1)
	}

	sock, err := dialBridge(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open game socket: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = sock.Close() }()

	p := tea.NewProgram(NewConsoleUI(cfg, sock),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())

	go sock.readLoop(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// testConnection accepts any answer from /health; a degraded bridge still
// serves the socket.
func testConnection(baseURL string) bool {
	resp, err := http.Get(strings.TrimRight(baseURL, "/") + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
