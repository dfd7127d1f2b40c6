package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/iwc-bridge/internal/config"
	"github.com/jwebster45206/iwc-bridge/internal/handlers"
	"github.com/jwebster45206/iwc-bridge/internal/logger"
	"github.com/jwebster45206/iwc-bridge/internal/middleware"
	"github.com/jwebster45206/iwc-bridge/internal/services/signer"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", os.Getenv("BRIDGE_CONFIG"), "path to a JSONC config file")
	port := pflag.StringP("port", "p", "8090", "listen port")
	pflag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	// The key is only ever read from the environment, never from a file
	key := os.Getenv("MINT_SIGNER_KEY")
	if key == "" {
		log.Error("MINT_SIGNER_KEY is required")
		os.Exit(1)
	}
	ks, err := signer.NewKeySigner(key)
	if err != nil {
		log.Error("Invalid MINT_SIGNER_KEY", "error", err)
		os.Exit(1)
	}

	log.Info("Starting mint signer",
		"port", *port,
		"signer_address", ks.Address().Hex(),
		"token_uri", cfg.MintTokenURI)

	mux := http.NewServeMux()
	mux.Handle(signer.EndpointMintSignature, handlers.NewMintSignatureHandler(ks, cfg.MintTokenURI, log))
	mux.Handle("/health", handlers.NewHealthHandler(nil, nil, log))

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      middleware.Logger(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
