package signer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jwebster45206/iwc-bridge/pkg/mint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipient = "0x1111111111111111111111111111111111111111"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestKeySigner(t *testing.T) *KeySigner {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s, err := NewKeySigner("0x" + hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)
	return s
}

func TestKeySigner_SignMint(t *testing.T) {
	s := newTestKeySigner(t)

	resp, err := s.SignMint(context.Background(), SignatureRequest{
		Address:  recipient,
		TokenURI: mint.TokenURI,
	})
	require.NoError(t, err)

	want, err := mint.Hash(recipient, mint.TokenURI, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, want.Hex(), resp.Hash)

	sig, err := hexutil.Decode(resp.Signature)
	require.NoError(t, err)
	signer, err := mint.RecoverSigner(want, sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), signer)
}

func TestKeySigner_Rejects(t *testing.T) {
	s := newTestKeySigner(t)

	_, err := s.SignMint(context.Background(), SignatureRequest{Address: "bob", TokenURI: mint.TokenURI})
	assert.ErrorIs(t, err, mint.ErrInvalidAddress)

	_, err = s.SignMint(context.Background(), SignatureRequest{Address: recipient, Referrer: "0x12"})
	assert.ErrorIs(t, err, mint.ErrInvalidAddress)

	_, err = NewKeySigner("not-a-key")
	assert.Error(t, err)
}

func TestClient_SignMint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointMintSignature, r.URL.Path)
		var req SignatureRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, recipient, req.Address)
		assert.Equal(t, mint.TokenURI, req.TokenURI)
		_ = json.NewEncoder(w).Encode(SignatureResponse{Hash: "0xhash", Signature: "0xsig"})
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second, testLogger())
	resp, err := c.SignMint(context.Background(), SignatureRequest{Address: recipient, TokenURI: mint.TokenURI})
	require.NoError(t, err)
	assert.Equal(t, "0xsig", resp.Signature)
}

func TestClient_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		c := NewClient("", time.Second, testLogger())
		_, err := c.SignMint(context.Background(), SignatureRequest{})
		assert.True(t, errors.Is(err, ErrNotConfigured))
	})

	t.Run("refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid address"})
		}))
		defer server.Close()

		c := NewClient(server.URL, time.Second, testLogger())
		_, err := c.SignMint(context.Background(), SignatureRequest{Address: "bob"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid address")
	})

	t.Run("empty signature", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(SignatureResponse{})
		}))
		defer server.Close()

		c := NewClient(server.URL, time.Second, testLogger())
		_, err := c.SignMint(context.Background(), SignatureRequest{Address: recipient})
		assert.Error(t, err)
	})
}
