package lootex

import (
	"context"
	"sync"
)

// MockAPI is a mock implementation of API for testing
type MockAPI struct {
	GetChallengeFunc        func(ctx context.Context, address string) (any, error)
	IsEmailAvailableFunc    func(ctx context.Context, email string) (bool, error)
	SendOTPEmailFunc        func(ctx context.Context, email string) (any, error)
	IsUsernameAvailableFunc func(ctx context.Context, username string) (bool, error)
	SignUpFunc              func(ctx context.Context, req SignUpRequest) (any, error)
	SignInFunc              func(ctx context.Context, req SignInRequest) (any, error)

	// Track calls for testing
	mu             sync.Mutex
	ChallengeCalls []string
	EmailCalls     []string
	OTPCalls       []string
	UsernameCalls  []string
	SignUpCalls    []SignUpRequest
	SignInCalls    []SignInRequest
}

// Ensure MockAPI implements API interface
var _ API = (*MockAPI)(nil)

// NewMockAPI creates a mock whose calls all succeed with empty bodies
func NewMockAPI() *MockAPI {
	return &MockAPI{}
}

func (m *MockAPI) GetChallenge(ctx context.Context, address string) (any, error) {
	m.mu.Lock()
	m.ChallengeCalls = append(m.ChallengeCalls, address)
	m.mu.Unlock()

	if m.GetChallengeFunc != nil {
		return m.GetChallengeFunc(ctx, address)
	}
	return map[string]any{}, nil
}

func (m *MockAPI) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	m.EmailCalls = append(m.EmailCalls, email)
	m.mu.Unlock()

	if m.IsEmailAvailableFunc != nil {
		return m.IsEmailAvailableFunc(ctx, email)
	}
	return true, nil
}

func (m *MockAPI) SendOTPEmail(ctx context.Context, email string) (any, error) {
	m.mu.Lock()
	m.OTPCalls = append(m.OTPCalls, email)
	m.mu.Unlock()

	if m.SendOTPEmailFunc != nil {
		return m.SendOTPEmailFunc(ctx, email)
	}
	return map[string]any{}, nil
}

func (m *MockAPI) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	m.mu.Lock()
	m.UsernameCalls = append(m.UsernameCalls, username)
	m.mu.Unlock()

	if m.IsUsernameAvailableFunc != nil {
		return m.IsUsernameAvailableFunc(ctx, username)
	}
	return true, nil
}

func (m *MockAPI) SignUp(ctx context.Context, req SignUpRequest) (any, error) {
	m.mu.Lock()
	m.SignUpCalls = append(m.SignUpCalls, req)
	m.mu.Unlock()

	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, req)
	}
	return map[string]any{}, nil
}

func (m *MockAPI) SignIn(ctx context.Context, req SignInRequest) (any, error) {
	m.mu.Lock()
	m.SignInCalls = append(m.SignInCalls, req)
	m.mu.Unlock()

	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, req)
	}
	return map[string]any{}, nil
}

// SetError makes every call fail with err
func (m *MockAPI) SetError(err error) {
	m.GetChallengeFunc = func(context.Context, string) (any, error) { return nil, err }
	m.IsEmailAvailableFunc = func(context.Context, string) (bool, error) { return false, err }
	m.SendOTPEmailFunc = func(context.Context, string) (any, error) { return nil, err }
	m.IsUsernameAvailableFunc = func(context.Context, string) (bool, error) { return false, err }
	m.SignUpFunc = func(context.Context, SignUpRequest) (any, error) { return nil, err }
	m.SignInFunc = func(context.Context, SignInRequest) (any, error) { return nil, err }
}
