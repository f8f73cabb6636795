package models

import "time"

// MenuItem is read-only for this service: catalog editing happens
// elsewhere, orders only consult existence, availability and price.
type MenuItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlaceID     uint      `gorm:"not null;index" json:"place_id"`
	Place       Place     `gorm:"foreignKey:PlaceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	// No default tag: gorm would skip the zero value on insert and an
	// item created unavailable would come back available.
	IsAvailable bool      `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
