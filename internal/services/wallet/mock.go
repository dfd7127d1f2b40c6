package wallet

import (
	"context"
	"sync"
)

// SignCall records one Sign invocation
type SignCall struct {
	Method string
	Params []any
}

// MockProvider is a mock implementation of Provider for testing
type MockProvider struct {
	RequestAccountsFunc func(ctx context.Context) ([]string, error)
	SignFunc            func(ctx context.Context, method string, params []any) (string, error)
	SendTransactionFunc func(ctx context.Context, tx Transaction) (string, error)
	MetaMask            bool
	Blocto              bool

	// Track calls for testing
	mu                   sync.Mutex
	RequestAccountsCalls int
	SignCalls            []SignCall
	TransactionCalls     []Transaction
}

// Ensure MockProvider implements Provider interface
var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a MetaMask-flavoured mock exposing one account
func NewMockProvider(accounts ...string) *MockProvider {
	m := &MockProvider{MetaMask: true}
	m.RequestAccountsFunc = func(context.Context) ([]string, error) {
		return accounts, nil
	}
	return m
}

func (m *MockProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	m.RequestAccountsCalls++
	m.mu.Unlock()

	if m.RequestAccountsFunc != nil {
		return m.RequestAccountsFunc(ctx)
	}
	return nil, nil
}

func (m *MockProvider) Sign(ctx context.Context, method string, params []any) (string, error) {
	m.mu.Lock()
	m.SignCalls = append(m.SignCalls, SignCall{Method: method, Params: params})
	m.mu.Unlock()

	if m.SignFunc != nil {
		return m.SignFunc(ctx, method, params)
	}
	return "0xsignature", nil
}

func (m *MockProvider) SendTransaction(ctx context.Context, tx Transaction) (string, error) {
	m.mu.Lock()
	m.TransactionCalls = append(m.TransactionCalls, tx)
	m.mu.Unlock()

	if m.SendTransactionFunc != nil {
		return m.SendTransactionFunc(ctx, tx)
	}
	return "0xtxhash", nil
}

func (m *MockProvider) IsMetaMask() bool { return m.MetaMask }

func (m *MockProvider) IsBlocto() bool { return m.Blocto }

// Calls returns a snapshot of the recorded Sign calls
func (m *MockProvider) Calls() []SignCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SignCall(nil), m.SignCalls...)
}
