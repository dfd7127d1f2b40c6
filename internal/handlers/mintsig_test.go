package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jwebster45206/iwc-bridge/internal/services/signer"
	"github.com/jwebster45206/iwc-bridge/pkg/mint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMintSigner struct {
	requests []signer.SignatureRequest
	err      error
}

func (f *fakeMintSigner) SignMint(_ context.Context, req signer.SignatureRequest) (*signer.SignatureResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &signer.SignatureResponse{Hash: "0xhash", Signature: "0xsig"}, nil
}

func TestMintSignatureHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		signerErr  error
		wantStatus int
		wantSigned bool
	}{
		{
			name:       "signs default token uri",
			method:     http.MethodPost,
			body:       `{"address":"` + testAddress + `"}`,
			wantStatus: http.StatusOK,
			wantSigned: true,
		},
		{
			name:       "signs explicit token uri",
			method:     http.MethodPost,
			body:       `{"address":"` + testAddress + `","tokenUri":"` + mint.TokenURI + `"}`,
			wantStatus: http.StatusOK,
			wantSigned: true,
		},
		{
			name:       "foreign token uri",
			method:     http.MethodPost,
			body:       `{"address":"` + testAddress + `","tokenUri":"ipfs://other/"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "invalid address",
			method:     http.MethodPost,
			body:       `{"address":"bob"}`,
			signerErr:  fmt.Errorf("%w: %q", mint.ErrInvalidAddress, "bob"),
			wantStatus: http.StatusBadRequest,
			wantSigned: true,
		},
		{
			name:       "signer failure",
			method:     http.MethodPost,
			body:       `{"address":"` + testAddress + `"}`,
			signerErr:  errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantSigned: true,
		},
		{
			name:       "bad json",
			method:     http.MethodPost,
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeMintSigner{err: tt.signerErr}
			h := NewMintSignatureHandler(fake, "", testLogger())

			req := httptest.NewRequest(tt.method, signer.EndpointMintSignature, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if !tt.wantSigned {
				assert.Empty(t, fake.requests)
				return
			}
			require.Len(t, fake.requests, 1)
			assert.Equal(t, mint.TokenURI, fake.requests[0].TokenURI)

			if tt.wantStatus == http.StatusOK {
				var resp signer.SignatureResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, "0xsig", resp.Signature)
			}
		})
	}
}

// The signer client and server agree on the wire format end to end.
func TestMintSignatureHandler_WithClient(t *testing.T) {
	ks, err := signer.NewKeySigner("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)

	server := httptest.NewServer(NewMintSignatureHandler(ks, mint.TokenURI, testLogger()))
	defer server.Close()

	client := signer.NewClient(server.URL, 0, testLogger())
	resp, err := client.SignMint(context.Background(), signer.SignatureRequest{Address: testAddress, TokenURI: mint.TokenURI})
	require.NoError(t, err)

	want, err := mint.Hash(testAddress, mint.TokenURI, common.Address{})
	require.NoError(t, err)
	assert.Equal(t, want.Hex(), resp.Hash)
}
