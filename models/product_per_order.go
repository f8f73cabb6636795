package models

import "time"

// ProductPerOrder is one priced line of an order, keyed by
// (order, menu item). The unit price is snapshotted from the menu item at
// order time so later catalog changes never rewrite history.
type ProductPerOrder struct {
	OrderID    uint      `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	Order      Order     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID uint      `gorm:"primaryKey;autoIncrement:false" json:"menu_item_id"`
	MenuItem   MenuItem  `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Discount   float64   `gorm:"type:decimal(5,2);not null;default:0.00" json:"discount"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
