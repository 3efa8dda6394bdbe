package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/logger"
)

func main() {
	file := flag.String("file", "shop.yaml", "YAML fixture with staff, closures and capacity overrides")
	flag.Parse()

	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Error("cannot read fixture", slog.String("file", *file), slog.String("error", err.Error()))
		os.Exit(1)
	}
	fx, err := parseFixture(data)
	if err != nil {
		log.Error("invalid fixture", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	store := database.NewStore(db, database.WithDefaultCapacity(cfg.Shop.JacketCapacity, cfg.Shop.PantsCapacity))

	if err := apply(context.Background(), store, fx, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
