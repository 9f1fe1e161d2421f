// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// UserAdminHandler handles HQ user management endpoints
type UserAdminHandler struct {
	adminService *user.AdminService
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(admin *user.AdminService) *UserAdminHandler {
	return &UserAdminHandler{
		adminService: admin,
	}
}

// GetUsers handles GET /hq/users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	var req user.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.adminService.GetUsers(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve users",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"data":    response,
	})
}

// CreateAccount handles POST /hq/users for merchant and HQ staff
func (h *UserAdminHandler) CreateAccount(c *gin.Context) {
	var req user.AccountCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	account, err := h.adminService.CreateAccount(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"data":    account,
	})
}

// UpdateUserStatus handles PUT /hq/users/:id/status
func (h *UserAdminHandler) UpdateUserStatus(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req user.UserStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	if currentID, _ := middleware.GetUserIDFromContext(c); currentID == userID && !*req.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Cannot deactivate your own account",
		})
		return
	}

	if err := h.adminService.SetActive(c.Request.Context(), userID, *req.IsActive); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User status updated successfully",
		"data": gin.H{
			"user_id":   userID,
			"is_active": *req.IsActive,
		},
	})
}
