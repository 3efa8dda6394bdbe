package handlers

import (
	"net/http"

	"github.com/arnavshah/alterations-api/pkg/lifecycle"
	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/gin-gonic/gin"
)

// Scan applies a QR scan from the authenticated staff member
func (h *Handler) Scan(c *gin.Context) {
	var req struct {
		QRCode   string `json:"qr_code" binding:"required"`
		ScanType string `json:"scan_type" binding:"required"`
		Location string `json:"location"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	scanType, err := models.ParseScanType(req.ScanType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.Lifecycle.Scan(c.Request.Context(), lifecycle.ScanRequest{
		QRCode:    req.QRCode,
		ScanType:  scanType,
		ScannerID: currentStaffID(c),
		Location:  req.Location,
		Notes:     req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
