package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/arnavshah/alterations-api/pkg/export"
	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/arnavshah/alterations-api/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

const (
	defaultWindowDays = 14
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// windowQuery reads ?start=YYYY-MM-DD&days=N, defaulting to two weeks from
// today.
func windowQuery(c *gin.Context) (time.Time, int, bool) {
	start := models.Day(time.Now())
	if s := c.Query("start"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			badRequest(c, err.Error())
			return time.Time{}, 0, false
		}
		start = d
	}

	days := defaultWindowDays
	if s := c.Query("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			badRequest(c, "days must be a number")
			return time.Time{}, 0, false
		}
		days = n
	}
	return start, days, true
}

func (h *Handler) CapacityWindow(c *gin.Context) {
	start, days, ok := windowQuery(c)
	if !ok {
		return
	}

	rows, err := h.Board.CapacityWindow(c.Request.Context(), start, days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": rows})
}

// ExportCapacity serves the capacity window as an XLSX download
func (h *Handler) ExportCapacity(c *gin.Context) {
	start, days, ok := windowQuery(c)
	if !ok {
		return
	}

	rows, err := h.Board.CapacityWindow(c.Request.Context(), start, days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	data, err := export.CapacityWorkbook(rows)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("capacity-%s.xlsx", models.FormatDate(start))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handler) SetDayCapacity(c *gin.Context) {
	date := c.Param("date")
	if _, err := models.ParseDate(date); err != nil {
		h.respondError(c, err)
		return
	}

	var req struct {
		JacketCapacity *int  `json:"jacket_capacity" binding:"required"`
		PantsCapacity  *int  `json:"pants_capacity" binding:"required"`
		// IsClosed is left as stored when omitted.
		IsClosed       *bool `json:"is_closed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	plan, err := h.Store.SetDayCapacity(c.Request.Context(), date, *req.JacketCapacity, *req.PantsCapacity, req.IsClosed)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (h *Handler) AddClosure(c *gin.Context) {
	var req struct {
		Date   string `json:"date" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := models.ParseDate(req.Date); err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.Store.AddClosure(c.Request.Context(), req.Date, req.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"date": req.Date, "reason": req.Reason})
}

// NextDay exposes the day selector: ?from=YYYY-MM-DD&rush=true
func (h *Handler) NextDay(c *gin.Context) {
	from := models.Day(time.Now())
	if s := c.Query("from"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			h.respondError(c, err)
			return
		}
		from = d
	}
	rush := c.Query("rush") == "true"

	day, err := h.Days.FindNextSchedulableDay(c.Request.Context(), from, rush)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":              models.FormatDate(day),
		"is_non_working":    h.Days.IsNonWorkingDay(day),
		"next_overflow_day": models.FormatDate(h.Days.NextNonWorkingWeekday(from)),
	})
}

func (h *Handler) AssignmentsForDay(c *gin.Context) {
	day, err := models.ParseDate(c.Param("date"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	board, err := h.Board.AssignmentsForDay(c.Request.Context(), day)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// MyAssignments lists the caller's own parts for ?date= (default today)
func (h *Handler) MyAssignments(c *gin.Context) {
	day := models.Day(time.Now())
	if s := c.Query("date"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			h.respondError(c, err)
			return
		}
		day = d
	}

	board, err := h.Board.AssignmentsForDay(c.Request.Context(), day)
	if err != nil {
		h.respondError(c, err)
		return
	}

	me := currentStaffID(c)
	mine := make([]models.DayAssignment, 0)
	var openMinutes, doneParts int
	for _, a := range board.Assignments {
		if a.AssignedTo == nil || *a.AssignedTo != me {
			continue
		}
		mine = append(mine, a)
		switch a.Status {
		case models.StatusNotStarted, models.StatusInProgress:
			openMinutes += a.EstimatedTimeMinutes
		case models.StatusComplete, models.StatusPickedUp:
			doneParts++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  board.Date,
		"parts": mine,
		"totals": gin.H{
			"parts":        len(mine),
			"done":         doneParts,
			"open_minutes": openMinutes,
		},
	})
}

func (h *Handler) AvailableTailors(c *gin.Context) {
	var req struct {
		Skill            string `json:"skill" binding:"required"`
		Date             string `json:"date" binding:"required"`
		Start            string `json:"start" binding:"required"`
		DurationMinutes  int    `json:"duration_minutes" binding:"required"`
		PreviousAssignee *uint  `json:"previous_assignee"`
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

	candidates, err := h.Balancer.FindAvailableTailors(c.Request.Context(), scheduler.TailorRequest{
		Skill:            req.Skill,
		Date:             day,
		Start:            req.Start,
		DurationMinutes:  req.DurationMinutes,
		PreviousAssignee: req.PreviousAssignee,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}
