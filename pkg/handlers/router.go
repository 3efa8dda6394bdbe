package handlers

import (
	"log/slog"
	"net/http"

	"github.com/arnavshah/alterations-api/pkg/logger"
	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinMiddleware(log), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Alterations Scheduling API",
			"version": "1.0.0",
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", h.Login)

	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.POST("/scan", h.Scan)

		api.POST("/jobs", h.CreateJob)
		api.POST("/jobs/validate", h.ValidateJob)
		api.GET("/jobs/:id", h.GetJob)
		api.POST("/jobs/:id/schedule", h.ScheduleJob)

		api.POST("/parts/:id/reschedule", h.ReschedulePart)
		api.GET("/parts/:id/scans", h.PartScans)

		api.GET("/capacity", h.CapacityWindow)
		api.GET("/capacity/export", h.ExportCapacity)
		api.GET("/calendar/next-day", h.NextDay)
		api.GET("/assignments/:date", h.AssignmentsForDay)
		api.GET("/me/assignments", h.MyAssignments)
		api.POST("/tailors/available", h.AvailableTailors)
	}

	manage := api.Group("")
	manage.Use(h.RequireRole(models.RoleAdmin, models.RoleManager))
	{
		manage.PUT("/jobs/:id/status", h.SetJobStatus)
		manage.POST("/schedule/bulk", h.BulkSchedule)
		manage.PUT("/capacity/:date", h.SetDayCapacity)
		manage.POST("/closures", h.AddClosure)
	}

	return r
}
