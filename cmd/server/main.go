package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnavshah/alterations-api/pkg/auth"
	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/handlers"
	"github.com/arnavshah/alterations-api/pkg/logger"
	"github.com/arnavshah/alterations-api/pkg/notify"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	store := database.NewStore(db, database.WithDefaultCapacity(cfg.Shop.JacketCapacity, cfg.Shop.PantsCapacity))

	if err := auth.EnsureAdminStaff(context.Background(), store, cfg.Auth, log); err != nil {
		log.Error("failed to bootstrap admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dispatcher, err := notify.NewFromConfig(cfg.Notify, log)
	if err != nil {
		log.Error("failed to set up notifications", slog.String("error", err.Error()))
		os.Exit(1)
	}

	h, err := handlers.NewHandler(cfg, store, dispatcher, log)
	if err != nil {
		log.Error("failed to build handlers", slog.String("error", err.Error()))
		os.Exit(1)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTPServer.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      c.Handler(handlers.NewRouter(h, log)),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", srv.Addr), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown failed", slog.String("error", err.Error()))
	}
	dispatcher.Wait()

	log.Info("server stopped")
}
