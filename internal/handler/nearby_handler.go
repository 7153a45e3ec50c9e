package handler

import (
	"net/http"
	"strconv"

	"vigilo/internal/domain"
	"vigilo/internal/middleware"
	"vigilo/internal/repository"

	"github.com/gin-gonic/gin"
)

type nearbyFinder interface {
	UsersWithinRadius(lat, lng float64, radiusM int, excludeUserID uint, verifiedOnly bool) ([]repository.NearbyUser, error)
}

// NearbyHandler exposes the range query directly: who would be alerted from
// a given center and radius. The caller is always excluded, and FCM tokens
// stay server-side: they are delivery credentials, not profile data.
type NearbyHandler struct {
	finder       nearbyFinder
	verifiedOnly bool
}

func NewNearbyHandler(finder nearbyFinder, verifiedOnly bool) *NearbyHandler {
	return &NearbyHandler{finder: finder, verifiedOnly: verifiedOnly}
}

func (h *NearbyHandler) Find(c *gin.Context) {
	userID := middleware.GetUserID(c)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	radiusM, errRad := strconv.Atoi(c.DefaultQuery("radius_m", strconv.Itoa(domain.MinRadiusM)))
	if errLat != nil || errLng != nil || errRad != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat, lng and radius_m must be numeric"})
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 || radiusM < 0 || radiusM > domain.MaxRadiusM {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates or radius out of range"})
		return
	}
	users, err := h.finder.UsersWithinRadius(lat, lng, radiusM, userID, h.verifiedOnly)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "range query failed, please retry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
