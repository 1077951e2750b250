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

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/campus-scheduler/internal/app"
	"github.com/nekogravitycat/campus-scheduler/internal/config"
	"github.com/nekogravitycat/campus-scheduler/internal/db"
	"github.com/nekogravitycat/campus-scheduler/internal/timeline"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Connect DB unless running on the in-memory stores
	var pool *pgxpool.Pool
	if cfg.Store == config.StorePostgres {
		pool, err = db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("failed to migrate db: %v", err)
		}
	} else {
		log.Println("using in-memory stores; data is lost on exit")
	}

	container := app.NewContainer(app.Config{
		IsProduction:            cfg.IsProduction,
		ProdOrigins:             cfg.ProdOrigins,
		DBPool:                  pool,
		JWTSecret:               cfg.JWTSecret,
		JWTTTL:                  cfg.JWTAccessTokenTTL,
		BcryptCost:              cfg.BcryptCost,
		BookingRequiresApproval: cfg.BookingRequiresApproval,
		MaxReservationSpan:      cfg.MaxReservationSpan,
		TimelineStartHour:       cfg.TimelineStartHour,
		TimelineEndHour:         cfg.TimelineEndHour,
		TimelineOptions: timeline.Options{
			UnitsPerMinute: cfg.TimelineUnitsPerMinute,
			MinLength:      cfg.TimelineMinLength,
			StackStep:      cfg.TimelineStackStep,
		},
	})

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		log.Printf("server running on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited gracefully")
}
