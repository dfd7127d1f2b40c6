package bridge

import (
	"context"

	"github.com/jwebster45206/iwc-bridge/internal/services/lootex"
)

// UsernameChecker decides whether a username can still be registered.
type UsernameChecker interface {
	IsAvailable(ctx context.Context, username string) (bool, error)
}

// AlwaysAvailable reports every username as available without asking the
// backend. It is the default until the backend check is switched on with
// USERNAME_CHECK=api; sign-up still rejects taken names.
type AlwaysAvailable struct{}

func (AlwaysAvailable) IsAvailable(context.Context, string) (bool, error) {
	return true, nil
}

// APIUsernameChecker asks the Lootex ID backend.
type APIUsernameChecker struct {
	API lootex.API
}

func (c APIUsernameChecker) IsAvailable(ctx context.Context, username string) (bool, error) {
	return c.API.IsUsernameAvailable(ctx, username)
}
