package handler

import (
	"net/http"
	"strconv"

	"vigilo/internal/middleware"
	"vigilo/internal/repository"

	"github.com/gin-gonic/gin"
)

type AlertHandler struct {
	repo *repository.AlertRepository
}

func NewAlertHandler(repo *repository.AlertRepository) *AlertHandler {
	return &AlertHandler{repo: repo}
}

// List returns alerts addressed to the caller; nobody else's are reachable
// through this handler.
func (h *AlertHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.repo.ListByRecipient(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "listing failed, please retry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": list})
}

func (h *AlertHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	count, err := h.repo.UnreadCount(userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "count failed, please retry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead flips read_at on one of the caller's alerts. An alert belonging
// to someone else looks identical to a missing one.
func (h *AlertHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}
	affected, err := h.repo.MarkRead(uint(id), userID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "update failed, please retry"})
		return
	}
	if affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
