package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultEstimateMinutes = 60

type partRequest struct {
	PartName             string `json:"part_name"`
	PartType             string `json:"part_type" binding:"required"`
	EstimatedTimeMinutes int    `json:"estimated_time_minutes"`
	Priority             string `json:"priority"`
	Notes                string `json:"notes"`
}

type jobRequest struct {
	JobNumber       string        `json:"job_number" binding:"required"`
	CustomerName    string        `json:"customer_name"`
	DueDate         *string       `json:"due_date"`
	RushOrder       bool          `json:"rush_order"`
	LastMinute      bool          `json:"last_minute"`
	LinkedEventDate *string       `json:"linked_event_date"`
	Notes           string        `json:"notes"`
	Parts           []partRequest `json:"parts"`
	// Schedule runs the job scheduler right after intake.
	Schedule bool `json:"schedule"`
}

// buildJob parses every enum and date once, here at the boundary.
func buildJob(req jobRequest) (*models.AlterationJob, error) {
	for _, d := range []*string{req.DueDate, req.LinkedEventDate} {
		if d != nil {
			if _, err := models.ParseDate(*d); err != nil {
				return nil, err
			}
		}
	}

	job := &models.AlterationJob{
		JobNumber:       strings.TrimSpace(req.JobNumber),
		QRCode:          uuid.NewString(),
		CustomerName:    req.CustomerName,
		Status:          models.StatusNotStarted,
		DueDate:         req.DueDate,
		RushOrder:       req.RushOrder,
		LastMinute:      req.LastMinute,
		LinkedEventDate: req.LinkedEventDate,
		Notes:           req.Notes,
	}
	if job.JobNumber == "" {
		return nil, fmt.Errorf("%w: job_number is required", apperr.ErrValidation)
	}

	for i, p := range req.Parts {
		partType, err := models.ParsePartType(p.PartType)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i+1, err)
		}
		priority, err := models.ParsePriority(p.Priority)
		if err != nil {
			return nil, fmt.Errorf("part %d: %w", i+1, err)
		}
		if p.EstimatedTimeMinutes < 0 {
			return nil, fmt.Errorf("%w: part %d: estimated_time_minutes must not be negative", apperr.ErrValidation, i+1)
		}
		if p.EstimatedTimeMinutes == 0 {
			p.EstimatedTimeMinutes = defaultEstimateMinutes
		}
		if p.PartName == "" {
			p.PartName = string(partType)
		}

		job.Parts = append(job.Parts, models.AlterationJobPart{
			PartName:             p.PartName,
			PartType:             partType,
			Status:               models.StatusNotStarted,
			QRCode:               uuid.NewString(),
			EstimatedTimeMinutes: p.EstimatedTimeMinutes,
			Priority:             priority,
			Notes:                p.Notes,
		})
	}
	return job, nil
}

// CreateJob handles job intake
func (h *Handler) CreateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	job, err := buildJob(req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.Store.CreateJob(ctx, job); err != nil {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"job": job}
	if req.Schedule {
		schedule, err := h.Jobs.ScheduleJobParts(ctx, job.ID, nil)
		if err != nil {
			h.respondError(c, err)
			return
		}
		resp["schedule"] = schedule
	}
	c.JSON(http.StatusCreated, resp)
}

// ValidateJob checks an intake payload without storing anything
func (h *Handler) ValidateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": err.Error()})
		return
	}

	job, err := buildJob(req)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	var jackets, pants, minutes int
	var fallback []string
	for _, p := range job.Parts {
		unit, explicit := p.PartType.Unit()
		if !explicit {
			fallback = append(fallback, p.PartName)
		}
		if unit == models.UnitPants {
			pants++
		} else {
			jackets++
		}
		minutes += p.EstimatedTimeMinutes
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"part_count":        len(job.Parts),
			"jacket_units":      jackets,
			"pants_units":       pants,
			"estimated_minutes": minutes,
		},
		"counted_as_jacket": fallback,
	})
}

func (h *Handler) GetJob(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	job, err := h.Store.GetJob(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// SetJobStatus is the manual override, e.g. putting a job ON_HOLD
func (h *Handler) SetJobStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.Store.SetJobStatus(c.Request.Context(), id, status); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": id, "status": status})
}

func (h *Handler) ScheduleJob(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Earliest string `json:"earliest"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}

	earliest, err := optionalDate(req.Earliest)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.Jobs.ScheduleJobParts(c.Request.Context(), id, earliest)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": id, "parts": res})
}

func (h *Handler) BulkSchedule(c *gin.Context) {
	var req struct {
		StartDate string `json:"start_date"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}

	start, err := optionalDate(req.StartDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.Bulk.Run(c.Request.Context(), start)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ReschedulePart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	day, err := models.ParseDate(req.Date)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.Jobs.ReschedulePart(c.Request.Context(), id, day)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PartScans returns the audit trail of a part
func (h *Handler) PartScans(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	logs, err := h.Lifecycle.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"part_id": id, "scans": logs})
}
