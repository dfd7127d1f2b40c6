// Package wallet talks to an injected-style Ethereum wallet: account
// access, message signing, and transaction submission.
package wallet

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoProvider is reported when no wallet is configured for the bridge.
var ErrNoProvider = errors.New("no injected provider available")

// Provider is the wallet surface the bridge needs.
type Provider interface {
	// RequestAccounts asks the wallet to connect and returns the exposed addresses.
	RequestAccounts(ctx context.Context) ([]string, error)

	// Sign calls a signing RPC method (personal_sign or eth_sign) with params
	// already in that method's order and returns the signature.
	Sign(ctx context.Context, method string, params []any) (string, error)

	// SendTransaction submits tx for the wallet to sign and broadcast and
	// returns the transaction hash.
	SendTransaction(ctx context.Context, tx Transaction) (string, error)

	// IsMetaMask reports the MetaMask-compatible signing convention.
	IsMetaMask() bool

	// IsBlocto reports a Blocto (ERC-1271 contract) wallet.
	IsBlocto() bool
}

// Transaction is the eth_sendTransaction parameter object
type Transaction struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Data  string `json:"data,omitempty"`
	Value string `json:"value,omitempty"`
}

// RPCError is a JSON-RPC error object returned by the wallet
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CodeUserRejected is the EIP-1193 code for a request the user declined.
const CodeUserRejected = 4001

func (e *RPCError) Error() string {
	return fmt.Sprintf("wallet rpc error %d: %s", e.Code, e.Message)
}

// Message returns the wallet's own message for RPC errors and err.Error() otherwise.
func Message(err error) string {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Message
	}
	return err.Error()
}
