package models

import "time"

const (
	TableStatusEmpty    = "empty"
	TableStatusOccupied = "occupied"
	TableStatusReserved = "reserved"
)

func IsValidTableStatus(s string) bool {
	switch s {
	case TableStatusEmpty, TableStatusOccupied, TableStatusReserved:
		return true
	}
	return false
}

// Table is a physical seat group. The salt is its public QR identity and
// rotates whenever the printed code must be invalidated.
type Table struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlaceID    uint      `gorm:"not null;index" json:"place_id"`
	Place      Place     `gorm:"foreignKey:PlaceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Label      string    `gorm:"type:varchar(50);not null" json:"label"`
	Status     string    `gorm:"type:varchar(20);not null;default:'empty'" json:"status"`
	IsDisabled bool      `gorm:"not null;default:false" json:"is_disabled"`
	Salt       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"salt"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
