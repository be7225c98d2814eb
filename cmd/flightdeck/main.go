package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flightdeck/internal/auth"
	"flightdeck/internal/config"
	"flightdeck/internal/db"
	"flightdeck/internal/flights"
	"flightdeck/internal/httpserver"
	"flightdeck/internal/logging"
	"flightdeck/internal/passengers"
)

func main() {
	ctx := context.Background()
	logger := logging.New()

	cfg := config.Load()

	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn, "sql"); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userStore := auth.NewStore(dbConn)
	if err := userStore.SeedFromFile(ctx, cfg.UsersPath); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := auth.NewService(userStore, tokens)

	flightStore := flights.NewStore(dbConn)
	passengerStore := passengers.NewStore(dbConn)

	handler := httpserver.NewRouter(logger, authSvc, userStore, flightStore, passengerStore, cfg.CORSOrigin)
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
