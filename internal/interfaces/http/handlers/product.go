// internal/interfaces/http/handlers/product.go
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/tenant"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// ViewRecorder remembers which products a member opened
type ViewRecorder interface {
	Record(ctx context.Context, userID, productID uint) error
}

// TenantGetter loads a tenant
type TenantGetter interface {
	Get(ctx context.Context, id uint) (*tenant.Tenant, error)
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *product.Service
	views          ViewRecorder
	tenants        TenantGetter
	logger         logrus.FieldLogger
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *product.Service, views ViewRecorder, tenants TenantGetter, logger logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{
		productService: products,
		views:          views,
		tenants:        tenants,
		logger:         logger,
	}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    h.productService.Browse(c.Request.Context(), &req),
	})
}

// SearchProducts handles GET /products/search?q=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	term := c.Query("q")
	if term == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Search query is required",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Search completed successfully",
		"data":    h.productService.Search(c.Request.Context(), term, &req),
	})
}

// GetProduct handles GET /products/:id. Members get the view recorded in their history.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.productService.GetView(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}
	if !view.IsActive {
		respondError(c, product.ErrProductNotFound, http.StatusNotFound)
		return
	}

	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		if err := h.views.Record(c.Request.Context(), userID, id); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":    userID,
				"product_id": id,
			}).Warn("failed to record product view")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    view,
	})
}

// ManageProducts handles GET /merchant/products and /hq/products. Merchants only see
// their own tenant's products, active or not.
func (h *ProductHandler) ManageProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if scope := middleware.TenantScope(c); scope != nil {
		req.TenantID = *scope
	}

	resp, err := h.productService.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    resp,
	})
}

// CreateProduct handles POST. Merchants create for their own tenant; HQ names one.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	tenantID := req.TenantID
	if scope := middleware.TenantScope(c); scope != nil {
		tenantID = *scope
	} else {
		if tenantID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "tenant_id is required",
			})
			return
		}
		if _, err := h.tenants.Get(c.Request.Context(), tenantID); err != nil {
			respondError(c, err, http.StatusInternalServerError)
			return
		}
	}

	view, err := h.productService.Create(c.Request.Context(), tenantID, &req)
	if err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    view,
	})
}

// UpdateProduct handles PUT /:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req product.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	view, err := h.productService.Update(c.Request.Context(), middleware.TenantScope(c), id, &req)
	if err != nil {
		respondError(c, err, http.StatusBadRequest)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    view,
	})
}

// DeleteProduct handles DELETE /:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), middleware.TenantScope(c), id); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}
