package models

import "time"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is a staff member of a place. Credential handling lives outside
// this service; tokens arrive already issued.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PlaceID   uint      `gorm:"not null;index" json:"place_id"`
	Place     Place     `gorm:"foreignKey:PlaceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Role      string    `gorm:"type:varchar(20);not null;default:'staff'" json:"role"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
