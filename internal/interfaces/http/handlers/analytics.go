// internal/interfaces/http/handlers/analytics.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/analytics"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// AnalyticsHandler handles analytics endpoints
type AnalyticsHandler struct {
	analyticsService *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: service,
	}
}

// GetDashboard handles GET /hq/analytics/dashboard and /merchant/analytics/dashboard
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	var req analytics.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	stats, err := h.analyticsService.Dashboard(c.Request.Context(), middleware.TenantScope(c), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve dashboard statistics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard statistics retrieved successfully",
		"data":    stats,
	})
}

// GetCustomers handles GET /hq/analytics/customers
func (h *AnalyticsHandler) GetCustomers(c *gin.Context) {
	stats, err := h.analyticsService.Customers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve customer analytics",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Customer analytics retrieved successfully",
		"data":    stats,
	})
}
