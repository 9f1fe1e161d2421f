// internal/interfaces/http/handlers/tenant.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/tenant"
)

// TenantHandler lets HQ manage the merchants selling on the storefront
type TenantHandler struct {
	tenantService *tenant.Service
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenants *tenant.Service) *TenantHandler {
	return &TenantHandler{tenantService: tenants}
}

// GetTenants handles GET /hq/tenants
func (h *TenantHandler) GetTenants(c *gin.Context) {
	status := tenant.Status(c.Query("status"))
	if status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status",
		})
		return
	}

	tenants, err := h.tenantService.List(c.Request.Context(), status)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tenants retrieved successfully",
		"data":    tenants,
	})
}

// GetTenant handles GET /hq/tenants/:id
func (h *TenantHandler) GetTenant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	t, err := h.tenantService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tenant retrieved successfully",
		"data":    t,
	})
}

// CreateTenant handles POST /hq/tenants
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req tenant.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	t, err := h.tenantService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tenant created successfully",
		"data":    t,
	})
}

// UpdateTenant handles PUT /hq/tenants/:id
func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req tenant.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	t, err := h.tenantService.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tenant updated successfully",
		"data":    t,
	})
}

// UpdateTenantStatus handles PUT /hq/tenants/:id/status
func (h *TenantHandler) UpdateTenantStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req tenant.StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status",
		})
		return
	}

	t, err := h.tenantService.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tenant status updated successfully",
		"data":    t,
	})
}
