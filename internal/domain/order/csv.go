// internal/domain/order/csv.go
package order

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVHeader is the fixed header row of order exports
var CSVHeader = []string{
	"order_number",
	"tenant_id",
	"user_id",
	"email",
	"status",
	"payment_status",
	"payment_method",
	"payment_provider",
	"item_count",
	"total_amount",
	"currency",
	"created_at",
}

// WriteCSV writes one row per order under CSVHeader
func WriteCSV(w io.Writer, orders []Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, o := range orders {
		quantity := 0
		for _, it := range o.Items {
			quantity += it.Quantity
		}
		row := []string{
			o.OrderNumber,
			strconv.FormatUint(uint64(o.TenantID), 10),
			strconv.FormatUint(uint64(o.UserID), 10),
			o.Email,
			string(o.Status),
			string(o.PaymentStatus),
			o.PaymentMethod,
			o.PaymentProvider,
			strconv.Itoa(quantity),
			strconv.FormatInt(o.TotalAmount, 10),
			o.Currency,
			o.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes every order matching the filter
func (s *Service) ExportCSV(ctx context.Context, req *OrderListRequest, w io.Writer) error {
	query, err := s.filtered(ctx, req)
	if err != nil {
		return err
	}

	orders := make([]Order, 0)
	if err := query.Preload("Items").Order(buildOrderClause(req.SortBy, req.SortOrder)).Find(&orders).Error; err != nil {
		return fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return WriteCSV(w, orders)
}
