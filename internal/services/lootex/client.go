// Package lootex is the HTTP client for the Lootex ID auth endpoints the
// bridge relays to.
package lootex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	EndpointChallenge         = "/api/v3/auth/challenge/get"
	EndpointEmailAvailable    = "/api/v3/auth/email/available"
	EndpointEmailSend         = "/api/v3/auth/email/send"
	EndpointUsernameAvailable = "/api/v3/auth/username/available"
	EndpointSignUp            = "/api/v3/auth/web3/sign-up"
	EndpointSignIn            = "/api/v3/auth/web3/sign-in"

	ChainFamilyETH       = "ETH"
	ProviderInjected     = "COMPATIBLE_INJECTED"
	TransportInjected    = "Injected"
	defaultClientTimeout = 30 * time.Second
)

// API is the subset of the Lootex ID backend the bridge uses. Response
// bodies are returned as decoded JSON (map, slice, bool, number) or as a
// string when the server did not answer with a JSON content type.
type API interface {
	GetChallenge(ctx context.Context, address string) (any, error)
	IsEmailAvailable(ctx context.Context, email string) (bool, error)
	SendOTPEmail(ctx context.Context, email string) (any, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	SignUp(ctx context.Context, req SignUpRequest) (any, error)
	SignIn(ctx context.Context, req SignInRequest) (any, error)
}

// SignUpRequest is the body of POST /api/v3/auth/web3/sign-up
type SignUpRequest struct {
	ChainFamily     string `json:"chainFamily"`
	Provider        string `json:"provider"`
	Transport       string `json:"transport"`
	Address         string `json:"address"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	OTPCode         string `json:"otpCode"`
	IsERC1271Wallet bool   `json:"isErc1271Wallet"`
	Signature       string `json:"signature"`
}

// SignInRequest is the body of POST /api/v3/auth/web3/sign-in
type SignInRequest struct {
	ChainFamily     string `json:"chainFamily"`
	Provider        string `json:"provider"`
	Transport       string `json:"transport"`
	Address         string `json:"address"`
	IsERC1271Wallet bool   `json:"isErc1271Wallet"`
	Signature       string `json:"signature"`
}

// NewSignUpRequest fills in the fixed injected-wallet fields.
func NewSignUpRequest(address, username, email, otpCode, signature string, erc1271 bool) SignUpRequest {
	return SignUpRequest{
		ChainFamily:     ChainFamilyETH,
		Provider:        ProviderInjected,
		Transport:       TransportInjected,
		Address:         address,
		Username:        username,
		Email:           email,
		OTPCode:         otpCode,
		IsERC1271Wallet: erc1271,
		Signature:       signature,
	}
}

// NewSignInRequest fills in the fixed injected-wallet fields.
func NewSignInRequest(address, signature string, erc1271 bool) SignInRequest {
	return SignInRequest{
		ChainFamily:     ChainFamilyETH,
		Provider:        ProviderInjected,
		Transport:       TransportInjected,
		Address:         address,
		IsERC1271Wallet: erc1271,
		Signature:       signature,
	}
}

// Client implements API over HTTP. Every call is attempted exactly once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure Client implements API interface
var _ API = (*Client)(nil)

// NewClient creates a client for the API at baseURL (no trailing slash).
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) GetChallenge(ctx context.Context, address string) (any, error) {
	return c.get(ctx, EndpointChallenge, url.Values{
		"chainFamily": {ChainFamilyETH},
		"address":     {address},
	})
}

func (c *Client) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	body, err := c.get(ctx, EndpointEmailAvailable, url.Values{"email": {email}})
	if err != nil {
		return false, err
	}
	return isTrue(body), nil
}

func (c *Client) SendOTPEmail(ctx context.Context, email string) (any, error) {
	return c.get(ctx, EndpointEmailSend, url.Values{"email": {email}})
}

func (c *Client) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	body, err := c.get(ctx, EndpointUsernameAvailable, url.Values{"username": {username}})
	if err != nil {
		return false, err
	}
	return isTrue(body), nil
}

func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (any, error) {
	return c.post(ctx, EndpointSignUp, req, nil)
}

func (c *Client) SignIn(ctx context.Context, req SignInRequest) (any, error) {
	return c.post(ctx, EndpointSignIn, req, nil)
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(endpoint, query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, endpoint string, body any, query url.Values) (any, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(endpoint, query), bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) buildURL(endpoint string, query url.Values) string {
	if len(query) == 0 {
		return c.baseURL + endpoint
	}
	return c.baseURL + endpoint + "?" + query.Encode()
}

func (c *Client) do(req *http.Request) (any, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Lootex API request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"error", err)
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Lootex API response",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	body, err := parseBody(resp.Header.Get("Content-Type"), raw)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if err != nil {
			// Proxies answer errors with HTML under a JSON content type
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Body:       string(raw),
				Message:    http.StatusText(resp.StatusCode),
			}
		}
		return nil, newAPIError(resp.StatusCode, body)
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

// parseBody decodes JSON when the content type mentions json and returns
// the text otherwise.
func parseBody(contentType string, raw []byte) (any, error) {
	if !strings.Contains(strings.ToLower(contentType), "json") {
		return string(raw), nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return body, nil
}

// isTrue accepts a JSON true or a text "true" as a positive availability answer.
func isTrue(body any) bool {
	switch v := body.(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) == "true"
	default:
		return false
	}
}
