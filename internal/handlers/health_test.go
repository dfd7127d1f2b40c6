package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jwebster45206/iwc-bridge/internal/services"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))

	tests := []struct {
		name           string
		setupRedis     func() services.HealthChecker
		setupWallet    func() services.HealthChecker
		expectedStatus int
		expectedHealth string
		expectedRedis  string
		expectedWallet string
	}{
		{
			name: "all healthy",
			setupRedis: func() services.HealthChecker {
				mock := services.NewMockPubSub()
				mock.SetPingSuccess()
				return mock
			},
			setupWallet: func() services.HealthChecker {
				return services.NewMockPubSub()
			},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedRedis:  "healthy",
			expectedWallet: "healthy",
		},
		{
			name: "unhealthy redis",
			setupRedis: func() services.HealthChecker {
				mock := services.NewMockPubSub()
				mock.SetPingError(errors.New("connection failed"))
				return mock
			},
			setupWallet:    func() services.HealthChecker { return nil },
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedRedis:  "unhealthy",
			expectedWallet: "disabled",
		},
		{
			name:       "unhealthy wallet",
			setupRedis: func() services.HealthChecker { return nil },
			setupWallet: func() services.HealthChecker {
				mock := services.NewMockPubSub()
				mock.SetPingError(errors.New("wallet locked"))
				return mock
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedRedis:  "disabled",
			expectedWallet: "unhealthy",
		},
		{
			name:           "nothing configured",
			setupRedis:     func() services.HealthChecker { return nil },
			setupWallet:    func() services.HealthChecker { return nil },
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedRedis:  "disabled",
			expectedWallet: "disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.setupRedis(), tt.setupWallet(), logger)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			// Check status code
			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}

			// Check content type
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
			}

			// Parse response
			var response HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if response.Status != tt.expectedHealth {
				t.Errorf("Expected status '%s', got '%s'", tt.expectedHealth, response.Status)
			}

			if response.Service != "iwc-bridge" {
				t.Errorf("Expected service 'iwc-bridge', got '%s'", response.Service)
			}

			if got := response.Components["redis"]; got != tt.expectedRedis {
				t.Errorf("Expected redis status '%s', got '%v'", tt.expectedRedis, got)
			}

			if got := response.Components["wallet"]; got != tt.expectedWallet {
				t.Errorf("Expected wallet status '%s', got '%v'", tt.expectedWallet, got)
			}

			// Check timestamp is recent
			if timeDiff := time.Since(response.Timestamp); timeDiff > time.Second {
				t.Errorf("Health check timestamp seems old: %v", timeDiff)
			}
		})
	}
}
