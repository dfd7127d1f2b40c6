package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/iwc-bridge/internal/services/signer"
	"github.com/jwebster45206/iwc-bridge/pkg/mint"
)

// MintSignatureHandler is the trusted side of the mint flow. It signs
// mint hashes for the configured token URI only, so a leaked endpoint
// cannot be used to authorise arbitrary metadata.
type MintSignatureHandler struct {
	signer   signer.MintSigner
	tokenURI string
	logger   *slog.Logger
}

// NewMintSignatureHandler creates a new mint signature handler
func NewMintSignatureHandler(s signer.MintSigner, tokenURI string, logger *slog.Logger) *MintSignatureHandler {
	if tokenURI == "" {
		tokenURI = mint.TokenURI
	}
	return &MintSignatureHandler{
		signer:   s,
		tokenURI: tokenURI,
		logger:   logger,
	}
}

// ServeHTTP handles POST /v1/mint/signature
func (h *MintSignatureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for mint signature endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req signer.SignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'address' field.")
		return
	}

	if req.TokenURI == "" {
		req.TokenURI = h.tokenURI
	}
	if req.TokenURI != h.tokenURI {
		h.logger.Warn("Refusing to sign foreign token URI", "token_uri", req.TokenURI)
		writeError(w, h.logger, http.StatusForbidden, "token URI not allowed")
		return
	}

	resp, err := h.signer.SignMint(r.Context(), req)
	if err != nil {
		if errors.Is(err, mint.ErrInvalidAddress) {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to sign mint", "error", err, "address", req.Address)
		writeError(w, h.logger, http.StatusInternalServerError, "failed to sign mint")
		return
	}

	h.logger.Info("Mint signed", "address", req.Address, "hash", resp.Hash)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode mint signature response", "error", err)
	}
}
