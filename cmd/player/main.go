package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signage-player/internal/config"
	"signage-player/internal/fetch"
	"signage-player/internal/player"
	"signage-player/internal/server"
	"signage-player/internal/store"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	st := store.New(nil)
	if cfg.DatabaseURL != "" {
		conn, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := store.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		st = store.New(conn)
	} else {
		log.Printf("DATABASE_URL not set; keeping player state in memory")
	}

	client := fetch.NewClient(fetch.Config{
		BaseURL:   cfg.BackendURL,
		Timeout:   cfg.RequestTimeout(),
		UserAgent: userAgent(cfg.DeviceName),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := server.New(ctx, cfg, st, player.ConfigFactory(cfg, client, st))
	for _, screen := range cfg.Screens {
		if _, err := srv.Manager().GetOrStart(screen.Token); err != nil {
			log.Printf("display start failed token=%s error=%v", screen.Token, err)
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		log.Printf("signage player listening on %s backend=%s screens=%d", cfg.Addr, cfg.BackendURL, len(cfg.Screens))
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Printf("received shutdown signal signal=%s", sig)
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server failed: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown failed: %v", err)
	}
	srv.Close()
	cancel()
	log.Println("signage player stopped")
}

func userAgent(device string) string {
	if device == "" {
		return "signage-player"
	}
	return "signage-player (" + device + ")"
}
