// internal/domain/settlement/service.go
package settlement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// ErrInvalidFilter is returned for an unknown status filter
var ErrInvalidFilter = errors.New("invalid settlement filter")

// OrderSource lists the orders of a period that settle
type OrderSource interface {
	SettlementOrders(ctx context.Context, tenantID *uint, from, to time.Time) ([]order.Order, error)
}

// TenantNames resolves tenant display names
type TenantNames interface {
	Names(ctx context.Context, ids []uint) (map[uint]string, error)
}

// StatementRenderer turns a statement into a printable document
type StatementRenderer interface {
	RenderStatement(ctx context.Context, st *Statement) ([]byte, error)
}

// Filter narrows the records of a settlement listing
type Filter struct {
	TenantID        *uint  `form:"tenant_id"`
	Status          Status `form:"status"`
	PaymentMethod   string `form:"payment_method"`
	PaymentProvider string `form:"payment_provider"`
	DateFrom        string `form:"date_from"`
	DateTo          string `form:"date_to"`
}

// Statement is one tenant's settlement for a period
type Statement struct {
	TenantID    uint      `json:"tenant_id"`
	TenantName  string    `json:"tenant_name"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	GeneratedAt time.Time `json:"generated_at"`
	Records     []Record  `json:"records"`
	Summary     Summary   `json:"summary"`
}

// Service computes settlement records from orders on every read. Nothing it returns is stored.
type Service struct {
	orders   OrderSource
	tenants  TenantNames
	renderer StatementRenderer
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a new settlement service
func NewService(orders OrderSource, tenants TenantNames, renderer StatementRenderer, logger logrus.FieldLogger) *Service {
	return &Service{
		orders:   orders,
		tenants:  tenants,
		renderer: renderer,
		logger:   logger.WithField("component", "settlement"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns the settlement records matching the filter, oldest order first
func (s *Service) List(ctx context.Context, f *Filter) ([]Record, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}

	from, to, err := order.ParseDateRange(f.DateFrom, f.DateTo)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.SettlementOrders(ctx, f.TenantID, from, to)
	if err != nil {
		return nil, err
	}

	now := s.now()
	records := make([]Record, 0, len(orders))
	for _, o := range orders {
		if f.PaymentMethod != "" && o.PaymentMethod != f.PaymentMethod {
			continue
		}
		if f.PaymentProvider != "" && o.PaymentProvider != f.PaymentProvider {
			continue
		}
		r := NewRecord(inputFromOrder(o), now)
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// Summary aggregates the records matching the filter
func (s *Service) Summary(ctx context.Context, f *Filter) (*Summary, error) {
	records, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	sum := Summarize(records)
	return &sum, nil
}

// ExportCSV writes the records matching the filter as CSV
func (s *Service) ExportCSV(ctx context.Context, f *Filter, w io.Writer) error {
	records, err := s.List(ctx, f)
	if err != nil {
		return err
	}
	return WriteCSV(w, records)
}

// Statement builds the settlement statement of one tenant
func (s *Service) Statement(ctx context.Context, tenantID uint, f *Filter) (*Statement, error) {
	scoped := *f
	scoped.TenantID = &tenantID

	records, err := s.List(ctx, &scoped)
	if err != nil {
		return nil, err
	}
	from, to, _ := order.ParseDateRange(f.DateFrom, f.DateTo)

	name := fmt.Sprintf("Tenant #%d", tenantID)
	names, err := s.tenants.Names(ctx, []uint{tenantID})
	if err != nil {
		s.logger.WithError(err).WithField("tenant_id", tenantID).Warn("failed to load tenant name for statement")
	} else if n, ok := names[tenantID]; ok {
		name = n
	}

	return &Statement{
		TenantID:    tenantID,
		TenantName:  name,
		From:        from,
		To:          to,
		GeneratedAt: s.now(),
		Records:     records,
		Summary:     Summarize(records),
	}, nil
}

// StatementPDF renders the statement of one tenant
func (s *Service) StatementPDF(ctx context.Context, tenantID uint, f *Filter) ([]byte, error) {
	st, err := s.Statement(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.RenderStatement(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to render settlement statement: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"records":   len(st.Records),
	}).Info("settlement statement rendered")
	return pdf, nil
}

func inputFromOrder(o order.Order) Input {
	return Input{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		TenantID:        o.TenantID,
		Amount:          o.TotalAmount,
		PaymentMethod:   o.PaymentMethod,
		PaymentProvider: o.PaymentProvider,
		OrderDate:       o.CreatedAt,
		Paid:            o.IsPaid(),
	}
}
