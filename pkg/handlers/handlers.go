package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/auth"
	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/lifecycle"
	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/arnavshah/alterations-api/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

const (
	ctxStaffID = "staffID"
	ctxRole    = "role"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	Store     *database.Store
	Jobs      *scheduler.JobScheduler
	Bulk      *scheduler.BulkScheduler
	Board     *scheduler.Board
	Days      *scheduler.DaySelector
	Balancer  *scheduler.Balancer
	Lifecycle *lifecycle.Machine
	Tokens    *auth.TokenIssuer
	Log       *slog.Logger
}

// NewHandler builds every scheduling and lifecycle component on top of
// store.
func NewHandler(cfg *config.Config, store *database.Store, publisher lifecycle.Publisher, log *slog.Logger) (*Handler, error) {
	nonWorking, err := cfg.Shop.Weekday()
	if err != nil {
		return nil, fmt.Errorf("handlers.NewHandler: %w", err)
	}

	days := scheduler.NewDaySelector(store, nonWorking, cfg.Shop.SearchHorizonDays)
	staff := scheduler.NewAvailabilityResolver(store, nonWorking)
	balancer := scheduler.NewBalancer(store, store, scheduler.BalancerConfig{
		DailyCapMinutes: cfg.Shop.DailyWorkloadCapMinutes,
		MinProficiency:  cfg.Shop.MinProficiency,
		DayStart:        cfg.Shop.DayStart,
		DayEnd:          cfg.Shop.DayEnd,
	})
	jobs := scheduler.NewJobScheduler(store, days, staff, balancer, log)

	return &Handler{
		Store:     store,
		Jobs:      jobs,
		Bulk:      scheduler.NewBulkScheduler(store, jobs, log),
		Board:     scheduler.NewBoard(store, days, store),
		Days:      days,
		Balancer:  balancer,
		Lifecycle: lifecycle.NewMachine(store, publisher, log),
		Tokens:    auth.NewTokenIssuer(cfg.Auth),
		Log:       log,
	}, nil
}

// AuthMiddleware verifies the staff JWT and exposes who is calling
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		// Strip "Bearer " if present
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := h.Tokens.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(ctxStaffID, claims.StaffID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets only the listed roles through. Must run after
// AuthMiddleware.
func (h *Handler) RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ctxRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}

// Login exchanges staff credentials for a token
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, staff, err := h.Tokens.Login(c.Request.Context(), h.Store, req.Username, req.Password)
	if errors.Is(err, apperr.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"staff_id":     staff.ID,
		"role":         staff.Role,
	})
}

// respondError maps err onto a status code. Internals of unexpected
// failures are logged and never sent to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.StatusCode(err)
	_ = c.Error(err)

	if status == http.StatusInternalServerError {
		h.Log.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// bindOptionalJSON binds the body into req. An empty body is fine; a
// malformed one is answered with 400.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// optionalDate parses an optional YYYY-MM-DD value; empty gives nil.
func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func currentStaffID(c *gin.Context) uint {
	id, _ := c.Get(ctxStaffID)
	staffID, _ := id.(uint)
	return staffID
}
