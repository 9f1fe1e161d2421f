// internal/interfaces/http/handlers/settlement.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/settlement"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// SettlementHandler serves settlement records, summaries and statements
type SettlementHandler struct {
	settlementService *settlement.Service
	tenants           TenantGetter
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(settlements *settlement.Service, tenants TenantGetter) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlements,
		tenants:           tenants,
	}
}

// GetSettlements handles GET /hq/settlements and /merchant/settlements
func (h *SettlementHandler) GetSettlements(c *gin.Context) {
	filter, ok := bindSettlementFilter(c)
	if !ok {
		return
	}

	records, err := h.settlementService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Settlements retrieved successfully",
		"data": gin.H{
			"records": records,
			"count":   len(records),
		},
	})
}

// GetSettlementSummary handles GET .../settlements/summary
func (h *SettlementHandler) GetSettlementSummary(c *gin.Context) {
	filter, ok := bindSettlementFilter(c)
	if !ok {
		return
	}

	summary, err := h.settlementService.Summary(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Settlement summary retrieved successfully",
		"data":    summary,
	})
}

// ExportSettlements handles GET .../settlements/export as CSV
func (h *SettlementHandler) ExportSettlements(c *gin.Context) {
	filter, ok := bindSettlementFilter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.settlementService.ExportCSV(c.Request.Context(), filter, &buf); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("settlements-%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// DownloadStatement handles GET .../settlements/statement. Merchants always get their own
// tenant's statement; HQ must name one with tenant_id.
func (h *SettlementHandler) DownloadStatement(c *gin.Context) {
	filter, ok := bindSettlementFilter(c)
	if !ok {
		return
	}
	if filter.TenantID == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "tenant_id is required",
		})
		return
	}
	tenantID := *filter.TenantID

	if _, err := h.tenants.Get(c.Request.Context(), tenantID); err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	pdf, err := h.settlementService.StatementPDF(c.Request.Context(), tenantID, filter)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("settlement-%d-%s.pdf", tenantID, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", strconv.Itoa(len(pdf)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// bindSettlementFilter reads the query filter and pins merchants to their own tenant
func bindSettlementFilter(c *gin.Context) (*settlement.Filter, bool) {
	var filter settlement.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		invalidRequest(c, err)
		return nil, false
	}
	if scope := middleware.TenantScope(c); scope != nil {
		filter.TenantID = scope
	}
	return &filter, true
}
