package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/iwc-bridge/internal/bridge"
	"github.com/jwebster45206/iwc-bridge/internal/config"
	"github.com/jwebster45206/iwc-bridge/internal/handlers"
	"github.com/jwebster45206/iwc-bridge/internal/logger"
	"github.com/jwebster45206/iwc-bridge/internal/middleware"
	"github.com/jwebster45206/iwc-bridge/internal/services"
	"github.com/jwebster45206/iwc-bridge/internal/services/events"
	"github.com/jwebster45206/iwc-bridge/internal/services/lootex"
	"github.com/jwebster45206/iwc-bridge/internal/services/signer"
	"github.com/jwebster45206/iwc-bridge/internal/services/wallet"
	"github.com/jwebster45206/iwc-bridge/internal/tracer"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", os.Getenv("BRIDGE_CONFIG"), "path to a JSONC config file")
	port := pflag.StringP("port", "p", "", "listen port (overrides PORT)")
	pflag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.Setup(cfg)

	log.Info("Starting IWC bridge",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"trusted_origin", cfg.TrustedOrigin,
		"api_base_url", cfg.APIBaseURL)

	shutdownTracer, err := tracer.Setup(context.Background(), cfg.TracingExporter)
	if err != nil {
		log.Error("Failed to set up tracing", "error", err)
		os.Exit(1)
	}

	deps, walletChecker := buildDeps(cfg, log)
	newBridge := func(poster bridge.Poster, logger *slog.Logger) *bridge.Bridge {
		return bridge.New(bridge.Config{
			TrustedOrigin: cfg.TrustedOrigin,
			TokenURI:      cfg.MintTokenURI,
			Contract:      cfg.MintContract,
		}, deps, poster, logger)
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/iwc/ws", handlers.NewGameSocketHandler(cfg.TrustedOrigin, newBridge, log))

	var redisChecker services.HealthChecker
	var sessionsHandler *handlers.SessionsHandler
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		redisService = services.NewRedisService(cfg.RedisURL, log)
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := redisService.WaitForConnection(waitCtx); err != nil {
			waitCancel()
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		waitCancel()
		log.Info("Redis connection established successfully")

		redisChecker = redisService
		broadcaster := events.NewBroadcaster(redisService.GetClient(), log)
		sessionsHandler = handlers.NewSessionsHandler(cfg.TrustedOrigin, newBridge, broadcaster, log)
		mux.Handle("/v1/iwc/sessions", sessionsHandler)
		mux.Handle("/v1/iwc/sessions/", sessionsHandler)
	} else {
		log.Info("REDIS_URL not set; HTTP session transport disabled")
	}

	mux.Handle("/health", handlers.NewHealthHandler(redisChecker, walletChecker, log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: websocket and SSE connections are long-lived
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if sessionsHandler != nil {
		sessionsHandler.Wait()
	}
	if redisService != nil {
		if err := redisService.Close(); err != nil {
			log.Error("Error closing Redis connection", "error", err)
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("Error flushing traces", "error", err)
	}

	log.Info("Server exited")
}

// buildDeps wires the bridge collaborators from cfg. The returned checker
// is nil when no wallet is configured.
func buildDeps(cfg *config.Config, log *slog.Logger) (bridge.Deps, services.HealthChecker) {
	var api lootex.API = lootex.NewClient(cfg.APIBaseURL, cfg.APITimeout, log)
	if cfg.APIBreakerEnabled {
		api = lootex.NewBreakerAPI(api, lootex.BreakerConfig{}, log)
		log.Info("Circuit breaker enabled for Lootex API")
	}

	deps := bridge.Deps{API: api}

	switch cfg.UsernameCheck {
	case config.UsernameCheckAPI:
		deps.Username = bridge.APIUsernameChecker{API: api}
	default:
		log.Warn("Username availability is not checked against the backend; set USERNAME_CHECK=api to enable")
		deps.Username = bridge.AlwaysAvailable{}
	}

	var walletChecker services.HealthChecker
	if cfg.WalletRPCURL != "" {
		rpc := wallet.NewRPCProvider(cfg.WalletRPCURL,
			cfg.WalletFlavor == config.WalletFlavorMetaMask,
			cfg.WalletFlavor == config.WalletFlavorBlocto,
			log)
		deps.Wallet = rpc
		walletChecker = rpc
		log.Info("Wallet provider configured", "flavor", cfg.WalletFlavor)
	} else {
		log.Warn("WALLET_RPC_URL not set; wallet requests will be denied")
	}

	if cfg.MintSignerURL != "" {
		deps.Signer = signer.NewClient(cfg.MintSignerURL, cfg.APITimeout, log)
	} else {
		log.Warn("MINT_SIGNER_URL not set; mint requests will be denied")
	}

	return deps, walletChecker
}

func init() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\nRelays game client IWC requests to the wallet, Lootex ID and the mint signer.\n\nFlags:\n", os.Args[0])
		pflag.PrintDefaults()
	}
}
