package models

import "time"

type Notification struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	TableID           uint      `gorm:"not null;index" json:"table_id"`
	Table             Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Message           string    `gorm:"type:text;not null" json:"message"`
	EventKind         string    `gorm:"type:varchar(50);not null" json:"event_kind"`
	IsGuestOriginated bool      `gorm:"not null;default:false" json:"is_guest_originated"`
	CreatedAt         time.Time `gorm:"not null" json:"created_at"`
}
