package main

import (
	"context"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/inin7674/lol-team/internal/config"
	"github.com/inin7674/lol-team/internal/httpapi"
	"github.com/inin7674/lol-team/internal/hub"
	"github.com/inin7674/lol-team/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := buildLogger(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var roomStore store.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		roomStore, err = store.NewRedis(ctx, client)
		if err != nil {
			logger.Fatal("redis store unavailable", zap.Error(err))
		}
		logger.Info("using redis store", zap.String("addr", cfg.RedisAddr))
	} else {
		roomStore = store.NewMemory()
		logger.Info("using in-memory store; rooms will not survive a restart")
	}

	h := hub.New(ctx, hub.Deps{Store: roomStore, Logger: logger})

	// Build the router *with* the hub injected
	server := httpapi.NewServer(h, logger)
	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Room-Session"},
	}).Handler(server.Routes())

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
