package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amenitybook/internal/httpapi"
	"amenitybook/internal/reservation"
	"amenitybook/pkg/config"
	"amenitybook/pkg/db"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if _, err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}
	if cfg.Auth.JWTSecret == "" {
		log.Printf("warning: AUTH_JWT_SECRET is empty; every request will be rejected")
	}

	reservations := reservation.NewService(
		reservation.NewRepository(pool, cfg.TxMaxAttempts),
		reservation.SystemClock,
		cfg.Location(),
	)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Dependencies{
			Cfg:          cfg,
			DB:           pool,
			Reservations: reservations,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("reservations api listening on %s timezone=%s tx_attempts=%d", cfg.HTTPAddr, cfg.Location(), cfg.TxMaxAttempts)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
