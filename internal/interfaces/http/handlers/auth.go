// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CartMerger folds a guest cart into a member cart
type CartMerger interface {
	Merge(ctx context.Context, userID uint, sessionID string) (*cart.Cart, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userService *user.Service
	carts       CartMerger
	sessions    sessions
	logger      logrus.FieldLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *user.Service, carts CartMerger, cfg *config.Config, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		userService: users,
		carts:       carts,
		sessions:    newSessions(cfg),
		logger:      logger,
	}
}

// Register handles customer registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	response, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}

	h.adoptGuestCart(c, response.User.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"data":    response,
	})
}

// Login handles user login. The guest cart of the current session is merged into the
// member cart.
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	response, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, http.StatusUnauthorized)
		return
	}

	h.adoptGuestCart(c, response.User.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    response,
	})
}

// adoptGuestCart merges the session's guest cart and, on success, rotates the session so
// the merged guest cart can never be merged again. A failed merge keeps the cookie so a
// later login can retry.
func (h *AuthHandler) adoptGuestCart(c *gin.Context, userID uint) {
	sessionID := h.sessions.current(c)
	if sessionID == "" {
		return
	}

	if _, err := h.carts.Merge(c.Request.Context(), userID, sessionID); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"session_id": sessionID,
		}).Warn("guest cart merge failed, keeping session for retry")
		return
	}
	h.sessions.rotate(c)
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req user.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	response, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"data":    response,
	})
}

// Logout ends the browser session. Tokens are stateless and expire on their own; the
// guest session is rotated so the next anonymous cart starts empty.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.rotate(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetProfile gets current user profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile retrieved successfully",
		"data":    profile,
	})
}
