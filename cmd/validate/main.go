package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jwebster45206/iwc-bridge/internal/config"
	"github.com/jwebster45206/iwc-bridge/pkg/mint"
	"github.com/redis/go-redis/v9"
	"github.com/tailscale/hujson"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <bridge.jsonc>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &ConfigValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Config file is valid!")
}

type ConfigValidator struct {
	errors []string
}

func (v *ConfigValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	if ext != ".json" && ext != ".jsonc" {
		return fmt.Errorf("config file must have .json or .jsonc extension: %s", baseName)
	}
	if !isValidConfigFilename(strings.TrimSuffix(baseName, ext)) {
		return fmt.Errorf("config filename '%s' must be lowercase snake_case (e.g., bridge_staging.jsonc)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	standard, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("file %s contains invalid JSONC: %w", filename, err)
	}

	cfg := config.Default()
	decoder := json.NewDecoder(bytes.NewReader(standard))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateConfig(cfg)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

func (v *ConfigValidator) validateConfig(cfg *config.Config) {
	v.validateOrigin(cfg.TrustedOrigin)
	v.validateURL("api_base_url", cfg.APIBaseURL, true)
	v.validateURL("wallet_rpc_url", cfg.WalletRPCURL, false)
	v.validateURL("mint_signer_url", cfg.MintSignerURL, false)

	if _, err := time.ParseDuration(cfg.APITimeoutRaw); err != nil {
		v.addError(fmt.Sprintf("api_timeout '%s' is not a duration (e.g., 30s)", cfg.APITimeoutRaw))
	}

	if cfg.MintContract != "" {
		if _, err := mint.ParseAddress(cfg.MintContract); err != nil {
			v.addError(fmt.Sprintf("mint_contract '%s' is not a hex address", cfg.MintContract))
		}
	}
	if cfg.MintTokenURI == "" {
		v.addError("mint_token_uri must not be empty")
	}

	if cfg.RedisURL != "" {
		if _, err := redis.ParseURL(cfg.RedisURL); err != nil {
			v.addError(fmt.Sprintf("redis_url is invalid: %v", err))
		}
	}

	switch cfg.LogLevelRaw {
	case "debug", "info", "warn", "warning", "error":
	default:
		v.addError(fmt.Sprintf("log_level '%s' should be one of debug, info, warn, error", cfg.LogLevelRaw))
	}

	// The file must spell enumerations in lower case
	if err := cfg.Validate(); err != nil {
		v.addError(err.Error())
	}
}

// validateOrigin requires scheme://host[:port] with nothing after it.
func (v *ConfigValidator) validateOrigin(origin string) {
	if origin == "" {
		return
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		v.addError(fmt.Sprintf("trusted_origin '%s' should look like https://host", origin))
		return
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		v.addError(fmt.Sprintf("trusted_origin '%s' must not carry a path, query or fragment", origin))
	}
	if strings.HasSuffix(origin, "/") {
		v.addError(fmt.Sprintf("trusted_origin '%s' must not end with '/'", origin))
	}
}

func (v *ConfigValidator) validateURL(fieldName, raw string, required bool) {
	if raw == "" {
		if required {
			v.addError(fieldName + " is required")
		}
		return
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		v.addError(fmt.Sprintf("%s '%s' should be an http(s) URL", fieldName, raw))
	}
}

func (v *ConfigValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidConfigFilename(name string) bool {
	// Allow 'x.' prefix for experimental configs
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
