package handler

import (
	"net/http"
	"time"

	"vigilo/internal/middleware"
	"vigilo/internal/models"
	"vigilo/internal/repository"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	locRepo *repository.LocationRepository
}

func NewLocationHandler(locRepo *repository.LocationRepository) *LocationHandler {
	return &LocationHandler{locRepo: locRepo}
}

func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	// Pointer coordinates: 0.0 is a valid position, not a missing field.
	var req struct {
		Latitude         *float64 `json:"latitude" binding:"required"`
		Longitude        *float64 `json:"longitude" binding:"required"`
		AccuracyMeters   float64  `json:"accuracy_meters"`
		IsSharingEnabled *bool    `json:"is_sharing_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}
	loc, _ := h.locRepo.GetByUserID(userID)
	if loc == nil {
		loc = &models.UserLocation{UserID: userID}
	}
	loc.Latitude = *req.Latitude
	loc.Longitude = *req.Longitude
	loc.AccuracyMeters = req.AccuracyMeters
	loc.LastUpdatedAt = time.Now()
	if req.IsSharingEnabled != nil {
		loc.IsSharingEnabled = *req.IsSharingEnabled
	}
	if err := h.locRepo.Upsert(loc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *LocationHandler) GetMyLocation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	loc, err := h.locRepo.GetByUserID(userID)
	if err != nil || loc == nil {
		c.JSON(http.StatusOK, gin.H{"latitude": nil, "longitude": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"latitude":           loc.Latitude,
		"longitude":          loc.Longitude,
		"accuracy_meters":    loc.AccuracyMeters,
		"is_sharing_enabled": loc.IsSharingEnabled,
		"last_updated_at":    loc.LastUpdatedAt,
	})
}
