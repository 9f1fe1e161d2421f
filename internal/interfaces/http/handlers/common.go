// internal/interfaces/http/handlers/common.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/settlement"
	"github.com/your-org/storefront-backend/internal/domain/tenant"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/domain/wishlist"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// errorStatus maps domain errors onto HTTP status codes. Anything unknown gets fallback.
func errorStatus(err error, fallback int) int {
	switch {
	case errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, product.ErrCategoryNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, wishlist.ErrNotInWishlist),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound

	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidOption),
		errors.Is(err, cart.ErrSessionRequired),
		errors.Is(err, product.ErrProductInactive),
		errors.Is(err, product.ErrCategoryTooDeep),
		errors.Is(err, order.ErrNoSelectedItems),
		errors.Is(err, order.ErrProductUnavailable),
		errors.Is(err, order.ErrInvalidDateRange),
		errors.Is(err, settlement.ErrInvalidFilter),
		errors.Is(err, user.ErrInvalidAccount):
		return http.StatusBadRequest

	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusUnprocessableEntity

	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, tenant.ErrDuplicateTenant):
		return http.StatusConflict

	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return fallback
}

// respondError writes err with the status errorStatus picks. Server errors are not
// echoed to the client.
func respondError(c *gin.Context, err error, fallback int) {
	status := errorStatus(err, fallback)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// parseIDParam reads a numeric path parameter, answering 400 when it is malformed
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}

// currentUserID returns the authenticated user, answering 401 when there is none
func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return 0, false
	}
	return userID, true
}
