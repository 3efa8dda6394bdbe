package handler

import (
	"context"
	"net/http"

	"github.com/arnavshah/alterations-api/pkg/auth"
	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/handlers"
	"github.com/arnavshah/alterations-api/pkg/logger"
	"github.com/arnavshah/alterations-api/pkg/notify"
	"github.com/gin-gonic/gin"
)

var r http.Handler

func init() {
	// Config also loads .env if it exists (for local testing with vercel dev)
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	db, err := database.Open(cfg.Database)
	if err != nil {
		panic(err)
	}
	store := database.NewStore(db, database.WithDefaultCapacity(cfg.Shop.JacketCapacity, cfg.Shop.PantsCapacity))
	_ = auth.EnsureAdminStaff(context.Background(), store, cfg.Auth, log)

	// Serverless instances may be frozen between requests, so only the log
	// notifier runs here.
	dispatcher := notify.NewDispatcher(log, cfg.Notify.Timeout, notify.NewLogNotifier(log))

	h, err := handlers.NewHandler(cfg, store, dispatcher, log)
	if err != nil {
		panic(err)
	}

	gin.SetMode(gin.ReleaseMode)
	r = handlers.NewRouter(h, log)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r_req *http.Request) {
	r.ServeHTTP(w, r_req)
}
