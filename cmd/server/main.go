// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/bluff/internal/auth"
	"github.com/jason-s-yu/bluff/internal/cache"
	"github.com/jason-s-yu/bluff/internal/config"
	"github.com/jason-s-yu/bluff/internal/handlers"
	"github.com/jason-s-yu/bluff/internal/lobby"
	"github.com/jason-s-yu/bluff/internal/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(err)
	}
	if err := auth.Init(cfg.TokenTTL); err != nil {
		logger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lobbyOpts := cfg.LobbyOptions()
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatal(err)
		}
		defer rdb.Close()
		lobbyOpts.Recorder = cache.NewPublisher(rdb, cfg.QueueName)
		logger.Infof("publishing game actions to %s", cfg.QueueName)
	} else {
		logger.Info("REDIS_ADDR not set, game actions are not published")
	}

	clients := session.NewStore(cfg.RateLimitBurst, cfg.RateLimitInterval)
	go clients.Janitor(ctx, time.Minute, cfg.SessionIdleTimeout)

	srv := handlers.NewServer(lobby.NewStore(lobbyOpts), clients, logger)
	srv.TokenTTL = cfg.TokenTTL

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Routes(),
	}

	go func() {
		logger.Infof("Running on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
	srv.Lobbies.CloseAll()
}
