package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWallet answers JSON-RPC calls from a method table
type fakeWallet struct {
	t       *testing.T
	results map[string]any
	errors  map[string]*RPCError
	seen    []rpcRequest
}

func (f *fakeWallet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req)) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.seen = append(f.seen, req)

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if rpcErr, ok := f.errors[req.Method]; ok {
		resp["error"] = rpcErr
	} else {
		resp["result"] = f.results[req.Method]
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRPCProvider_RequestAccounts(t *testing.T) {
	fw := &fakeWallet{t: t, results: map[string]any{
		"eth_requestAccounts": []string{"0xabc", "0xdef"},
	}}
	server := httptest.NewServer(fw)
	defer server.Close()

	p := NewRPCProvider(server.URL, true, false, testLogger())
	accounts, err := p.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0xabc", "0xdef"}, accounts)

	require.Len(t, fw.seen, 1)
	assert.Equal(t, "2.0", fw.seen[0].JSONRPC)
	assert.Equal(t, "eth_requestAccounts", fw.seen[0].Method)
	assert.True(t, p.IsMetaMask())
	assert.False(t, p.IsBlocto())
}

func TestRPCProvider_SignKeepsParamOrder(t *testing.T) {
	fw := &fakeWallet{t: t, results: map[string]any{"eth_sign": "0xsig"}}
	server := httptest.NewServer(fw)
	defer server.Close()

	p := NewRPCProvider(server.URL, false, false, testLogger())
	sig, err := p.Sign(context.Background(), "eth_sign", []any{"0xabc", "0x41"})
	require.NoError(t, err)
	assert.Equal(t, "0xsig", sig)
	assert.Equal(t, []any{"0xabc", "0x41"}, fw.seen[0].Params)
}

func TestRPCProvider_UserRejected(t *testing.T) {
	fw := &fakeWallet{t: t, errors: map[string]*RPCError{
		"personal_sign": {Code: CodeUserRejected, Message: "User denied message signature."},
	}}
	server := httptest.NewServer(fw)
	defer server.Close()

	p := NewRPCProvider(server.URL, true, false, testLogger())
	_, err := p.Sign(context.Background(), "personal_sign", []any{"0x41", "0xabc"})
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, CodeUserRejected, rpcErr.Code)
	assert.Equal(t, "User denied message signature.", Message(err))
}

func TestRPCProvider_SendTransaction(t *testing.T) {
	fw := &fakeWallet{t: t, results: map[string]any{"eth_sendTransaction": "0xhash"}}
	server := httptest.NewServer(fw)
	defer server.Close()

	p := NewRPCProvider(server.URL, true, false, testLogger())
	hash, err := p.SendTransaction(context.Background(), Transaction{From: "0xabc", To: "0xdef", Data: "0x00"})
	require.NoError(t, err)
	assert.Equal(t, "0xhash", hash)

	require.Len(t, fw.seen[0].Params, 1)
	tx, ok := fw.seen[0].Params[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0xabc", tx["from"])
	assert.Equal(t, "0xdef", tx["to"])
	assert.NotContains(t, tx, "value")
}

func TestRPCProvider_Failures(t *testing.T) {
	t.Run("http status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "locked", http.StatusForbidden)
		}))
		defer server.Close()

		p := NewRPCProvider(server.URL, true, false, testLogger())
		_, err := p.RequestAccounts(context.Background())
		assert.Error(t, err)
	})

	t.Run("unexpected result type", func(t *testing.T) {
		fw := &fakeWallet{t: t, results: map[string]any{"eth_requestAccounts": 42}}
		server := httptest.NewServer(fw)
		defer server.Close()

		p := NewRPCProvider(server.URL, true, false, testLogger())
		_, err := p.RequestAccounts(context.Background())
		assert.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		p := NewRPCProvider(server.URL, true, false, testLogger())
		assert.Error(t, p.Ping(context.Background()))
	})
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "nope", Message(&RPCError{Code: 1, Message: "nope"}))
	assert.Equal(t, ErrNoProvider.Error(), Message(ErrNoProvider))
}
