package models

import "time"

const (
	OrderStatusCreated          = "created"
	OrderStatusApproved         = "approved"
	OrderStatusDelivered        = "delivered"
	OrderStatusPaymentRequested = "payment_requested"
	OrderStatusPaid             = "paid"
	OrderStatusCancelled        = "cancelled"
	OrderStatusClosed           = "closed"
)

func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusCreated, OrderStatusApproved, OrderStatusDelivered,
		OrderStatusPaymentRequested, OrderStatusPaid, OrderStatusCancelled,
		OrderStatusClosed:
		return true
	}
	return false
}

// IsTerminalOrderStatus reports whether no further transitions are
// possible. Cancelled orders are the only ones eligible for deletion.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusClosed || s == OrderStatusCancelled
}

type Order struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	TableID        uint              `gorm:"not null;index" json:"table_id"`
	Table          Table             `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	GuestSessionID *uint             `gorm:"index" json:"guest_session_id,omitempty"`
	GuestSession   *GuestSession     `gorm:"foreignKey:GuestSessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CustomerID     *uint             `gorm:"index" json:"customer_id,omitempty"`
	Status         string            `gorm:"type:varchar(20);not null;default:'created'" json:"status"`
	TotalPrice     float64           `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_price"`
	PaymentType    *string           `gorm:"type:varchar(20)" json:"payment_type,omitempty"`
	Note           *string           `gorm:"type:text" json:"note,omitempty"`
	CreatedAt      time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null" json:"updated_at"`
	Items          []ProductPerOrder `gorm:"foreignKey:OrderID" json:"items"`
}
