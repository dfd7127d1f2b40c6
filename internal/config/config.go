package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

const (
	WalletFlavorMetaMask = "metamask"
	WalletFlavorBlocto   = "blocto"
	WalletFlavorGeneric  = "generic"

	UsernameCheckStub = "stub"
	UsernameCheckAPI  = "api"
)

type Config struct {
	Port        string     `json:"port"`
	Environment string     `json:"environment"`
	LogLevel    slog.Level `json:"-"`
	LogLevelRaw string     `json:"log_level"`

	// TrustedOrigin is the only origin the bridge accepts messages from and posts replies to.
	TrustedOrigin string `json:"trusted_origin"`

	APIBaseURL        string        `json:"api_base_url"`
	APITimeout        time.Duration `json:"-"`
	APITimeoutRaw     string        `json:"api_timeout"`
	APIBreakerEnabled bool          `json:"api_breaker_enabled"`

	WalletRPCURL string `json:"wallet_rpc_url"`
	WalletFlavor string `json:"wallet_flavor"`

	MintSignerURL string `json:"mint_signer_url"`
	MintContract  string `json:"mint_contract"`
	MintTokenURI  string `json:"mint_token_uri"`

	RedisURL string `json:"redis_url"`

	UsernameCheck   string `json:"username_check"`
	TracingExporter string `json:"tracing_exporter"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:            "8080",
		Environment:     "development",
		LogLevelRaw:     "info",
		TrustedOrigin:   "https://campaign-game.vercel.app",
		APIBaseURL:      "https://lootex.dev",
		APITimeoutRaw:   "30s",
		WalletFlavor:    WalletFlavorMetaMask,
		MintContract:    "0x98F30E87eBda3fa6577F52B113DC8aD4E199236c",
		MintTokenURI:    "ipfs://tokenUri/",
		UsernameCheck:   UsernameCheckStub,
		TracingExporter: "noop",
	}
}

// Load builds the configuration from defaults, an optional JSONC file named
// by BRIDGE_CONFIG, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("BRIDGE_CONFIG"))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevelRaw = getEnv("LOG_LEVEL", cfg.LogLevelRaw)
	cfg.TrustedOrigin = getEnv("TRUSTED_ORIGIN", cfg.TrustedOrigin)
	cfg.APIBaseURL = getEnv("API_BASE_URL", cfg.APIBaseURL)
	cfg.APITimeoutRaw = getEnv("API_TIMEOUT", cfg.APITimeoutRaw)
	cfg.APIBreakerEnabled = getEnvBool("API_BREAKER_ENABLED", cfg.APIBreakerEnabled)
	cfg.WalletRPCURL = getEnv("WALLET_RPC_URL", cfg.WalletRPCURL)
	cfg.WalletFlavor = strings.ToLower(getEnv("WALLET_FLAVOR", cfg.WalletFlavor))
	cfg.MintSignerURL = getEnv("MINT_SIGNER_URL", cfg.MintSignerURL)
	cfg.MintContract = getEnv("MINT_CONTRACT", cfg.MintContract)
	cfg.MintTokenURI = getEnv("MINT_TOKEN_URI", cfg.MintTokenURI)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.UsernameCheck = strings.ToLower(getEnv("USERNAME_CHECK", cfg.UsernameCheck))
	cfg.TracingExporter = strings.ToLower(getEnv("TRACING_EXPORTER", cfg.TracingExporter))

	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	timeout, err := time.ParseDuration(cfg.APITimeoutRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT %q: %w", cfg.APITimeoutRaw, err)
	}
	cfg.APITimeout = timeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if c.TrustedOrigin == "" {
		return fmt.Errorf("trusted origin is required")
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	switch c.WalletFlavor {
	case WalletFlavorMetaMask, WalletFlavorBlocto, WalletFlavorGeneric:
	default:
		return fmt.Errorf("unsupported wallet flavor %q", c.WalletFlavor)
	}
	switch c.UsernameCheck {
	case UsernameCheckStub, UsernameCheckAPI:
	default:
		return fmt.Errorf("unsupported username check %q", c.UsernameCheck)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) mergeFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config failed: %w", err)
	}

	standard, err := hujson.Standardize(content)
	if err != nil {
		return fmt.Errorf("parse config failed: %w", err)
	}

	if err := json.Unmarshal(standard, c); err != nil {
		return fmt.Errorf("parse config failed: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
