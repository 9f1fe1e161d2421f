// internal/domain/settlement/record.go
package settlement

import "time"

// Input carries the order facts a settlement record is computed from
type Input struct {
	OrderID         uint
	OrderNumber     string
	TenantID        uint
	Amount          int64
	PaymentMethod   string
	PaymentProvider string
	OrderDate       time.Time
	Paid            bool
}

// Record summarizes the settlement of a single order
type Record struct {
	OrderID         uint      `json:"order_id"`
	OrderNumber     string    `json:"order_number"`
	TenantID        uint      `json:"tenant_id"`
	OrderAmount     int64     `json:"order_amount"`
	Commission      int64     `json:"commission"`
	NetAmount       int64     `json:"net_amount"`
	Status          Status    `json:"status"`
	PaymentMethod   string    `json:"payment_method"`
	PaymentProvider string    `json:"payment_provider"`
	OrderDate       time.Time `json:"order_date"`
	SettlementDate  time.Time `json:"settlement_date"`
}

// NewRecord computes a record from its inputs. The same input and now always yield the same record.
func NewRecord(in Input, now time.Time) Record {
	commission := Commission(in.Amount, in.PaymentMethod, in.PaymentProvider)
	settleOn := SettlementDate(in.OrderDate, in.PaymentMethod)

	status := StatusPending
	if in.Paid {
		status = DeriveStatus(settleOn, now)
	}

	return Record{
		OrderID:         in.OrderID,
		OrderNumber:     in.OrderNumber,
		TenantID:        in.TenantID,
		OrderAmount:     in.Amount,
		Commission:      commission,
		NetAmount:       in.Amount - commission,
		Status:          status,
		PaymentMethod:   in.PaymentMethod,
		PaymentProvider: in.PaymentProvider,
		OrderDate:       in.OrderDate,
		SettlementDate:  settleOn,
	}
}
