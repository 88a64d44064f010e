package main

import (
	"context"
	"expvar"
	"log"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/lienzo-games/lienzo/internal/game"
	"github.com/lienzo-games/lienzo/internal/infrastructure/configs"
	"github.com/lienzo-games/lienzo/internal/infrastructure/ratelimiter"
	"github.com/lienzo-games/lienzo/internal/infrastructure/tracing"
	"github.com/lienzo-games/lienzo/internal/infrastructure/ws"
	"github.com/lienzo-games/lienzo/internal/judge"
	"github.com/lienzo-games/lienzo/internal/presentation/api"
	"github.com/lienzo-games/lienzo/internal/presentation/handler/health"
	"github.com/lienzo-games/lienzo/internal/presentation/handler/rooms"
	"github.com/lienzo-games/lienzo/internal/prompt"
	"github.com/lienzo-games/lienzo/internal/registry"
)

const serviceName = "lienzo-api"

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	reg := registry.New(logger, registry.Config{
		RoomTTL:       cfg.Game.RoomTTL,
		AbandonedTTL:  cfg.Game.AbandonedRoomTTL,
		EmptyTTL:      cfg.Game.EmptyRoomTTL,
		SweepInterval: cfg.Game.SweepInterval,
	})
	go reg.Run(ctx)

	catalog := prompt.NewCatalog(time.Now().UnixNano())
	judgeClient := judge.NewHTTPClient(cfg.Judge.BaseURL, cfg.Judge.APIKey, cfg.Judge.Timeout)

	hub := ws.NewHub(logger)

	orchestrator := game.NewOrchestrator(reg, catalog, judgeClient, hub, logger, game.Timings{
		Drawing:    time.Duration(cfg.Game.DrawingSeconds) * time.Second,
		Guessing:   time.Duration(cfg.Game.GuessingSeconds) * time.Second,
		Reveal:     time.Duration(cfg.Game.RevealSeconds) * time.Second,
		Scoreboard: time.Duration(cfg.Game.ScoreboardSeconds) * time.Second,
	})

	roomHandler := rooms.NewHandler(reg, orchestrator, hub, logger, cfg.Game.DefaultMaxRounds)
	healthHandler := health.NewHandler()

	rl := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rl.Close()

	app := api.NewApplication(*cfg, roomHandler, healthHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
