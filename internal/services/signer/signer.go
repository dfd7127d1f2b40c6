// Package signer obtains mint authorisations from the trusted signing
// service. The bridge only ever holds a Client; the private key lives in
// the mint-signer process behind a KeySigner.
package signer

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jwebster45206/iwc-bridge/pkg/mint"
)

const EndpointMintSignature = "/v1/mint/signature"

// ErrNotConfigured is returned when no signing service was configured.
var ErrNotConfigured = errors.New("mint signer not configured")

// SignatureRequest asks for an authorisation to mint tokenURI to Address.
type SignatureRequest struct {
	Address  string `json:"address"`
	TokenURI string `json:"tokenUri"`
	Referrer string `json:"referrer"`
}

// SignatureResponse carries the signed mint hash, both 0x-hex encoded.
type SignatureResponse struct {
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
}

// MintSigner produces the signature the campaign contract checks on mint.
type MintSigner interface {
	SignMint(ctx context.Context, req SignatureRequest) (*SignatureResponse, error)
}

// KeySigner signs with a key held in process. Only the mint-signer
// service constructs one.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// Ensure KeySigner implements MintSigner interface
var _ MintSigner = (*KeySigner)(nil)

// NewKeySigner parses a hex private key, with or without 0x prefix.
func NewKeySigner(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer key: %w", err)
	}
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address is the signer account the contract must trust
func (s *KeySigner) Address() common.Address {
	return s.address
}

func (s *KeySigner) SignMint(_ context.Context, req SignatureRequest) (*SignatureResponse, error) {
	referrer := common.Address{}
	if req.Referrer != "" {
		addr, err := mint.ParseAddress(req.Referrer)
		if err != nil {
			return nil, err
		}
		referrer = addr
	}

	hash, err := mint.Hash(req.Address, req.TokenURI, referrer)
	if err != nil {
		return nil, err
	}

	sig, err := mint.SignHash(s.key, hash)
	if err != nil {
		return nil, err
	}

	return &SignatureResponse{
		Hash:      hash.Hex(),
		Signature: hexutil.Encode(sig),
	}, nil
}

// Client calls a remote mint-signer service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Ensure Client implements MintSigner interface
var _ MintSigner = (*Client)(nil)

// NewClient creates a client for the signer at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) SignMint(ctx context.Context, sigReq SignatureRequest) (*SignatureResponse, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	reqBody, err := json.Marshal(sigReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+EndpointMintSignature, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach mint signer: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("mint signer refused: %s", errResp.Error)
		}
		return nil, fmt.Errorf("mint signer returned status %d: %s", resp.StatusCode, string(body))
	}

	var sigResp SignatureResponse
	if err := json.Unmarshal(body, &sigResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if sigResp.Signature == "" {
		return nil, errors.New("mint signer returned an empty signature")
	}

	c.logger.Debug("Mint signature obtained", "address", sigReq.Address, "hash", sigResp.Hash)
	return &sigResp, nil
}
