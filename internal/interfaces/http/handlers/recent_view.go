// internal/interfaces/http/handlers/recent_view.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/recentview"
)

// RecentViewHandler serves a member's recently viewed products
type RecentViewHandler struct {
	recentViews *recentview.Service
}

// NewRecentViewHandler creates a new recent view handler
func NewRecentViewHandler(views *recentview.Service) *RecentViewHandler {
	return &RecentViewHandler{recentViews: views}
}

// GetRecentViews handles GET /recent-views
func (h *RecentViewHandler) GetRecentViews(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recently viewed products retrieved successfully",
		"data":    h.recentViews.List(c.Request.Context(), userID),
	})
}

// ClearRecentViews handles DELETE /recent-views
func (h *RecentViewHandler) ClearRecentViews(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.recentViews.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recently viewed products cleared successfully",
	})
}
