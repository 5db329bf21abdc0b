package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/api"
	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/catalogue"
	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/config"
	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/reader"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	cat, err := catalogue.Open(cfg.CataloguePath)
	if err != nil {
		log.Error("failed to open catalogue", "error", err)
		os.Exit(1)
	}

	// Idle sessions still get their progression saved before eviction.
	sessions := reader.NewSessionStore(cfg.SessionTTL, func(sess *reader.Session) {
		sess.Parser().SaveProgression(cat)
		if err := sess.Parser().Close(); err != nil {
			log.Warn("evicted session close", "session_id", sess.ID, "error", err)
		}
		log.Info("evicted idle session", "session_id", sess.ID)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Cleanup()
			}
		}
	}()

	srv := api.NewServer(cat, sessions, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting readdesc", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
