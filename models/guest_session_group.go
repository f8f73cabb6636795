package models

import "time"

// GuestSessionGroup represents one seating: all guest devices at a table
// between an empty→occupied transition and the next reset. The composite
// unique index lets the database enforce at most one active group per
// table in a single write.
type GuestSessionGroup struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TableID    uint      `gorm:"not null;uniqueIndex:idx_active_group" json:"table_id"`
	Table      Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Passphrase string    `gorm:"type:varchar(20);not null" json:"-"`
	IsActive   *bool     `gorm:"uniqueIndex:idx_active_group" json:"is_active"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
