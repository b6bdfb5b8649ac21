package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/monopoly/auth"
	"github.com/wfunc/monopoly/config"
	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/persistence"
	"github.com/wfunc/monopoly/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Init(false)
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Log.Development)
	defer logger.Sync()

	// Initialize Database
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Infof("Results store ready (driver %s).", cfg.Database.Driver)

	var authenticator auth.Authenticator = auth.AnonymousAuthenticator{}
	if cfg.Auth.Mode == "jwt" {
		jwtAuth, err := auth.NewJWTAuthenticator(cfg.Auth.JWTSecret)
		if err != nil {
			logger.Log.Fatalf("Failed to configure authentication: %v", err)
		}
		authenticator = jwtAuth
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg.Server, db, game.NewRandRoller(cfg.Game.DiceSeed), authenticator)

	errChan := make(chan error, 1)
	go func() {
		errChan <- gameServer.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	case sig := <-sigChan:
		logger.Log.Infof("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gameServer.Shutdown(ctx); err != nil {
			logger.Log.Errorf("Shutdown error: %v", err)
		}
	}
}
