// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
)

// CartHandler handles cart endpoints for members and guests alike
type CartHandler struct {
	cartService *cart.Service
	sessions    sessions
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Service, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartService: carts,
		sessions:    newSessions(cfg),
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    h.cartService.Get(c.Request.Context(), h.sessions.owner(c)),
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Cart count retrieved successfully",
		"data": gin.H{
			"count": h.cartService.Count(c.Request.Context(), h.sessions.owner(c)),
		},
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req cart.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	cartResponse, err := h.cartService.Add(c.Request.Context(), h.sessions.owner(c), &req)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    cartResponse,
	})
}

// UpdateCartItem handles PUT /cart/items/:key. A quantity of zero removes the line.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	key, ok := parseCartKey(c)
	if !ok {
		return
	}

	var req cart.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	cartResponse, err := h.cartService.SetQuantity(c.Request.Context(), h.sessions.owner(c), key, *req.Quantity)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    cartResponse,
	})
}

// IncrementCartItem handles POST /cart/items/:key/increment
func (h *CartHandler) IncrementCartItem(c *gin.Context) {
	key, ok := parseCartKey(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.Increment(c.Request.Context(), h.sessions.owner(c), key)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    cartResponse,
	})
}

// DecrementCartItem handles POST /cart/items/:key/decrement
func (h *CartHandler) DecrementCartItem(c *gin.Context) {
	key, ok := parseCartKey(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.Decrement(c.Request.Context(), h.sessions.owner(c), key)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    cartResponse,
	})
}

// RemoveFromCart handles DELETE /cart/items/:key
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	key, ok := parseCartKey(c)
	if !ok {
		return
	}

	cartResponse, err := h.cartService.Remove(c.Request.Context(), h.sessions.owner(c), key)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    cartResponse,
	})
}

// RemoveCartItems handles POST /cart/items/remove. Ids no longer in the cart are skipped.
func (h *CartHandler) RemoveCartItems(c *gin.Context) {
	var req cart.RemoveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	keys := make([]cart.Key, 0, len(req.IDs))
	for _, id := range req.IDs {
		key, err := cart.ParseKey(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		keys = append(keys, key)
	}

	cartResponse, err := h.cartService.RemoveKeys(c.Request.Context(), h.sessions.owner(c), keys, false)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Items removed from cart successfully",
		"data":    cartResponse,
	})
}

// SelectCartItem handles PUT /cart/items/:key/select
func (h *CartHandler) SelectCartItem(c *gin.Context) {
	key, ok := parseCartKey(c)
	if !ok {
		return
	}

	var req cart.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	cartResponse, err := h.cartService.Select(c.Request.Context(), h.sessions.owner(c), key, *req.Selected)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart selection updated successfully",
		"data":    cartResponse,
	})
}

// SelectAllCartItems handles PUT /cart/select
func (h *CartHandler) SelectAllCartItems(c *gin.Context) {
	var req cart.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	cartResponse, err := h.cartService.SelectAll(c.Request.Context(), h.sessions.owner(c), *req.Selected)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart selection updated successfully",
		"data":    cartResponse,
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), h.sessions.owner(c)); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

func parseCartKey(c *gin.Context) (cart.Key, bool) {
	key, err := cart.ParseKey(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return cart.Key{}, false
	}
	return key, true
}
