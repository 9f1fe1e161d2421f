// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaymentProcessing OrderStatus = "payment_processing"
	OrderStatusConfirmed         OrderStatus = "confirmed"
	OrderStatusProcessing        OrderStatus = "processing"
	OrderStatusShipped           OrderStatus = "shipped"
	OrderStatusOutForDelivery    OrderStatus = "out_for_delivery"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusRefunded          OrderStatus = "refunded"
)

// OrderStatuses lists every order status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaymentProcessing,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Order is one tenant's share of a checkout
type Order struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	OrderNumber     string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	TenantID        uint          `gorm:"not null;index" json:"tenant_id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	Email           string        `gorm:"not null;size:255" json:"email"`
	Status          OrderStatus   `gorm:"size:30;not null;index" json:"status"`
	PaymentStatus   PaymentStatus `gorm:"size:30;not null" json:"payment_status"`
	PaymentMethod   string        `gorm:"size:50;not null" json:"payment_method"`
	PaymentProvider string        `gorm:"size:50" json:"payment_provider"`

	// Amounts in whole currency units
	SubtotalAmount int64  `gorm:"not null" json:"subtotal_amount"`
	ShippingAmount int64  `gorm:"not null" json:"shipping_amount"`
	TotalAmount    int64  `gorm:"not null" json:"total_amount"`
	Currency       string `gorm:"size:3;not null" json:"currency"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Notes           string  `gorm:"type:text" json:"notes"`

	PaidAt      *time.Time     `json:"paid_at"`
	ShippedAt   *time.Time     `json:"shipped_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is the product snapshot of one purchased cart line
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	Name       string    `gorm:"not null;size:255" json:"name"`
	Brand      string    `gorm:"size:100" json:"brand"`
	Image      string    `gorm:"size:500" json:"image"`
	Size       string    `gorm:"size:50" json:"size"`
	Color      string    `gorm:"size:50" json:"color"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Price      int64     `gorm:"not null" json:"price"`       // Unit price
	TotalPrice int64     `gorm:"not null" json:"total_price"` // Quantity * Price
	CreatedAt  time.Time `json:"created_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"size:30;not null" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy uint        `gorm:"index" json:"created_by"` // User ID who made the change
	CreatedAt time.Time   `json:"created_at"`
}

// Address represents the shipping address (embedded in Order)
type Address struct {
	Recipient    string `gorm:"size:100" json:"recipient" binding:"required"`
	Phone        string `gorm:"size:20" json:"phone" binding:"required"`
	PostalCode   string `gorm:"size:20" json:"postal_code" binding:"required"`
	AddressLine1 string `gorm:"size:255" json:"address_line1" binding:"required"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// GenerateOrderNumber returns a fresh order number: ORD-YYYYMMDD-XXXXXXXX
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// CanBeCancelledByCustomer reports whether the buyer may still cancel
func (o *Order) CanBeCancelledByCustomer() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusPaymentProcessing
}

// IsPaid reports whether payment has been confirmed
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// IsSettleable reports whether the order produces a settlement record
func (o *Order) IsSettleable() bool {
	return o.Status != OrderStatusCancelled && o.Status != OrderStatusRefunded
}

var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {
		OrderStatusPaymentProcessing,
		OrderStatusConfirmed,
		OrderStatusCancelled,
	},
	OrderStatusPaymentProcessing: {
		OrderStatusConfirmed,
		OrderStatusCancelled,
	},
	OrderStatusConfirmed: {
		OrderStatusProcessing,
		OrderStatusCancelled,
	},
	OrderStatusProcessing: {
		OrderStatusShipped,
		OrderStatusCancelled,
	},
	OrderStatusShipped: {
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
	},
	OrderStatusOutForDelivery: {
		OrderStatusDelivered,
	},
	OrderStatusDelivered: {
		OrderStatusCompleted,
		OrderStatusRefunded,
	},
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to OrderStatus) bool {
	for _, status := range validTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}
