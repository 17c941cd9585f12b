package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "room-relay/internal/app"
	httpx "room-relay/internal/http"
	"room-relay/internal/relay"
	"room-relay/internal/store"
	"room-relay/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metadata store: postgres with migrations, or in-memory for dev
	var gw store.Gateway
	switch cfg.Store {
	case "memory":
		gw = store.NewMemory()
		logger.Warn("store.memory", "msg", "room records will not survive a restart")
	default:
		pg, err := store.NewPostgres(ctx, cfg.PGURL, logger)
		if err != nil {
			logger.Error("postgres connect", "err", err)
			log.Fatal(err)
		}
		defer pg.Close()
		if err := store.RunMigrations(ctx, pg, logger); err != nil {
			logger.Error("migrations", "err", err)
			log.Fatal(err)
		}
		gw = pg
	}

	// Room registry, constructed once and injected everywhere
	reg := relay.NewRegistry(logger, gw, cfg.EvictGrace)

	// WebSocket session handler + HTTP router
	wsh := ws.NewHandler(logger, reg, cfg)
	router := httpx.NewRouter(cfg, logger, wsh, reg, gw)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
