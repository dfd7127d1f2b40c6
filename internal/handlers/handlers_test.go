package handlers

import (
	"context"
	"log/slog"
	"os"

	"github.com/jwebster45206/iwc-bridge/internal/bridge"
	"github.com/jwebster45206/iwc-bridge/internal/services/lootex"
	"github.com/jwebster45206/iwc-bridge/internal/services/wallet"
)

const (
	testOrigin  = "https://campaign-game.vercel.app"
	testAddress = "0x1111111111111111111111111111111111111111"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// challengeFactory builds bridges whose backend hands out nonce "xyz"
func challengeFactory() BridgeFactory {
	api := lootex.NewMockAPI()
	api.GetChallengeFunc = func(context.Context, string) (any, error) {
		return map[string]any{"nonce": "xyz"}, nil
	}
	return func(poster bridge.Poster, logger *slog.Logger) *bridge.Bridge {
		return bridge.New(bridge.Config{TrustedOrigin: testOrigin}, bridge.Deps{
			API:    api,
			Wallet: wallet.NewMockProvider(testAddress),
		}, poster, logger)
	}
}
