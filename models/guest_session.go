package models

import "time"

// GuestSession is one guest device's ephemeral identity at a table.
// The token is the bearer credential presented on every guest request.
type GuestSession struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	TableID   uint               `gorm:"not null;index" json:"table_id"`
	Table     Table              `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	GroupID   *uint              `gorm:"index" json:"group_id,omitempty"`
	Group     *GuestSessionGroup `gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Token     string             `gorm:"type:varchar(64);not null;index" json:"token"`
	IsValid   bool               `gorm:"not null;default:true" json:"is_valid"`
	CreatedAt time.Time          `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time          `gorm:"not null" json:"expires_at"`
	UpdatedAt time.Time          `gorm:"not null" json:"updated_at"`
}

// Active reports whether the session can still be used at the given time.
func (s *GuestSession) Active(now time.Time) bool {
	return s.IsValid && now.Before(s.ExpiresAt)
}
