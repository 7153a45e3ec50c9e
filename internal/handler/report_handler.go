package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"vigilo/internal/domain"
	"vigilo/internal/middleware"
	"vigilo/internal/models"
	"vigilo/internal/repository"
	"vigilo/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReportHandler struct {
	svc              *service.ReportService
	reportRepo       *repository.ReportRepository
	confirmationRepo *repository.ConfirmationRepository
}

func NewReportHandler(svc *service.ReportService, reportRepo *repository.ReportRepository, confirmationRepo *repository.ConfirmationRepository) *ReportHandler {
	return &ReportHandler{svc: svc, reportRepo: reportRepo, confirmationRepo: confirmationRepo}
}

// CreateReportRequest deliberately has no geometry or expiry timestamp
// fields; both are server-derived. Lat/Lng are pointers so that 0.0, a valid
// coordinate on the equator and prime meridian, is distinguishable from a
// missing field.
type CreateReportRequest struct {
	UserID         uint     `json:"user_id"` // optional; must match the token when set
	Category       string   `json:"category" binding:"required"`
	VehicleNumber  string   `json:"vehicle_number" binding:"required"`
	Description    string   `json:"description"`
	PhotoURL       string   `json:"photo_url"`
	Lat            *float64 `json:"lat" binding:"required"`
	Lng            *float64 `json:"lng" binding:"required"`
	RadiusM        int      `json:"radius_m" binding:"required"`
	ExpiryHours    int      `json:"expiry_hours"`
	AlertMessage   string   `json:"alert_message"`
	IdempotencyKey string   `json:"idempotency_key"`
}

// Create persists a report and fans out alerts to nearby users. The response
// carries alerts_sent, which is zero both when nobody is in range and when
// fan-out failed after the report committed.
func (h *ReportHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID != 0 && req.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot create a report for another user"})
		return
	}
	report, sent, err := h.svc.Submit(service.CreateReportInput{
		UserID:         userID,
		Category:       req.Category,
		VehicleNumber:  req.VehicleNumber,
		Description:    req.Description,
		PhotoURL:       req.PhotoURL,
		Lat:            *req.Lat,
		Lng:            *req.Lng,
		RadiusM:        req.RadiusM,
		ExpiryHours:    req.ExpiryHours,
		AlertMessage:   req.AlertMessage,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[report] create failed: user=%d err=%v", userID, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report creation failed, please retry"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"report":      report,
		"alerts_sent": sent,
	})
}

// List returns unexpired reports, optionally filtered by category.
func (h *ReportHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	category := c.Query("category")
	if category != "" && !domain.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	list, err := h.reportRepo.ListActive(category, time.Now(), limit, offset)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing failed, please retry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": list})
}

// Get returns one report. Expired reports are only visible to their owner.
func (h *ReportHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	report, ok := h.fetchReport(c)
	if !ok {
		return
	}
	if report.IsExpired(time.Now()) && !report.IsOwner(userID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	count, _ := h.confirmationRepo.CountByReport(report.ID)
	c.JSON(http.StatusOK, gin.H{"report": report, "confirmations": count})
}

// UpdateStatus is owner-only. Status is orthogonal to the expiry window: a
// report can be marked FOUND and still be listed until its window closes.
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	userID := middleware.GetUserID(c)
	report, ok := h.fetchReport(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !domain.ValidReportStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	if !report.IsOwner(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can update the status"})
		return
	}
	if _, err := h.reportRepo.UpdateStatus(report.ID, userID, req.Status); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "update failed, please retry"})
		return
	}
	report.Status = req.Status
	h.svc.PublishStatusChange(report)
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// Confirm records a sighting confirmation. Only visible (unexpired) reports
// can be confirmed; one confirmation per user per report, enforced by the
// store, surfaces as 409.
func (h *ReportHandler) Confirm(c *gin.Context) {
	userID := middleware.GetUserID(c)
	report, ok := h.fetchReport(c)
	if !ok {
		return
	}
	if report.IsExpired(time.Now()) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	var req struct {
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !domain.ValidConfirmationType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown confirmation type"})
		return
	}
	conf := &models.Confirmation{
		ReportID: report.ID,
		UserID:   userID,
		Type:     req.Type,
	}
	if err := h.confirmationRepo.Create(conf); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "already confirmed"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "confirmation failed, please retry"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"confirmation": conf})
}

// ListMine returns the caller's own reports, expired ones included.
func (h *ReportHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.reportRepo.ListByOwner(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing failed, please retry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": list})
}

func (h *ReportHandler) fetchReport(c *gin.Context) (*models.TheftReport, bool) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return nil, false
	}
	report, err := h.reportRepo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lookup failed, please retry"})
		}
		return nil, false
	}
	return report, true
}
