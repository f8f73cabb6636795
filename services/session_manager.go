package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/utils"
)

// SessionTTL is how long a guest session stays usable after creation.
// One service window; an abandoned table is reset by staff well before.
const SessionTTL = 6 * time.Hour

// GuestSessionManager owns the lifecycle of guest sessions and their
// groups. At most one session per token is valid system-wide, and at most
// one group per table is active at a time.
type GuestSessionManager struct {
	DB *gorm.DB
}

func NewGuestSessionManager(db *gorm.DB) *GuestSessionManager {
	return &GuestSessionManager{DB: db}
}

// WithTx returns a manager bound to the given transaction.
func (m *GuestSessionManager) WithTx(tx *gorm.DB) *GuestSessionManager {
	return &GuestSessionManager{DB: tx}
}

// CreateSession opens a guest session on a table. The first session of a
// seating mints a new group with a generated passphrase (any supplied one
// is ignored); later sessions must present the group's passphrase.
// Returns the session and its group so callers can hand the passphrase to
// the first guest.
func (m *GuestSessionManager) CreateSession(tableID uint, passphrase string) (*models.GuestSession, *models.GuestSessionGroup, error) {
	var table models.Table
	if err := m.DB.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NewNotFound("table not found")
		}
		return nil, nil, utils.NewFatal("could not load table", err)
	}

	if table.IsDisabled {
		return nil, nil, utils.NewInvalidState("table is not accepting sessions")
	}

	group, err := m.activeGroup(tableID)
	if err != nil {
		return nil, nil, err
	}

	if group == nil {
		active := true
		group = &models.GuestSessionGroup{
			TableID:    tableID,
			Passphrase: utils.NewPassphrase(),
			IsActive:   &active,
		}
		if err := m.DB.Create(group).Error; err != nil {
			return nil, nil, utils.NewFatal("could not create session group", err)
		}
	} else if passphrase != group.Passphrase {
		// Deliberately vague: guests never learn whether the table has a
		// group or what went wrong with their credential.
		return nil, nil, utils.NewUnauthorized("invalid credentials")
	}

	now := time.Now()
	session := models.GuestSession{
		TableID:   tableID,
		GroupID:   &group.ID,
		Token:     utils.NewSessionToken(),
		IsValid:   true,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := m.DB.Create(&session).Error; err != nil {
		return nil, nil, utils.NewFatal("could not create session", err)
	}

	utils.InfoLogger.Printf("Guest session %d created on table %d (group %d)", session.ID, tableID, group.ID)
	return &session, group, nil
}

// HasActiveSession reports whether the token maps to a valid, non-expired
// session on the given table.
func (m *GuestSessionManager) HasActiveSession(tableID uint, token string) bool {
	if token == "" {
		return false
	}
	var count int64
	err := m.DB.Model(&models.GuestSession{}).
		Where("table_id = ? AND token = ? AND is_valid = ? AND expires_at > ?",
			tableID, token, true, time.Now()).
		Count(&count).Error
	if err != nil {
		utils.ErrorLogger.Printf("Could not check sessions on table %d: %v", tableID, err)
		return false
	}
	return count > 0
}

// GetConflictingSession finds a valid session for the same token on a
// different table. A guest holding one blocks any new session elsewhere.
func (m *GuestSessionManager) GetConflictingSession(token string, tableID uint) (*models.GuestSession, error) {
	if token == "" {
		return nil, nil
	}
	var session models.GuestSession
	err := m.DB.
		Where("token = ? AND table_id != ? AND is_valid = ? AND expires_at > ?",
			token, tableID, true, time.Now()).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewFatal("could not look up sessions", err)
	}
	return &session, nil
}

// SessionByToken returns the valid, non-expired session for a token on
// the given table, or nil.
func (m *GuestSessionManager) SessionByToken(tableID uint, token string) (*models.GuestSession, error) {
	if token == "" {
		return nil, nil
	}
	var session models.GuestSession
	err := m.DB.
		Where("table_id = ? AND token = ? AND is_valid = ? AND expires_at > ?",
			tableID, token, true, time.Now()).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewFatal("could not look up session", err)
	}
	return &session, nil
}

// EndGroupSession invalidates every session under the table's active
// group and retires the group. No-op when the table has no active group.
func (m *GuestSessionManager) EndGroupSession(tableID uint) error {
	group, err := m.activeGroup(tableID)
	if err != nil {
		return err
	}
	if group == nil {
		return nil
	}

	if err := m.DB.Model(&models.GuestSession{}).
		Where("group_id = ?", group.ID).
		Update("is_valid", false).Error; err != nil {
		return utils.NewFatal("could not invalidate group sessions", err)
	}

	// NULL instead of false keeps the (table_id, is_active) unique index
	// satisfied across many retired groups.
	if err := m.DB.Model(group).Update("is_active", nil).Error; err != nil {
		return utils.NewFatal("could not retire session group", err)
	}

	utils.InfoLogger.Printf("Session group %d on table %d ended", group.ID, tableID)
	return nil
}

// EndSession invalidates the single session behind a token, letting a
// guest leave one table before scanning another.
func (m *GuestSessionManager) EndSession(token string) error {
	if token == "" {
		return utils.NewUnauthorized("invalid credentials")
	}
	res := m.DB.Model(&models.GuestSession{}).
		Where("token = ? AND is_valid = ?", token, true).
		Update("is_valid", false)
	if res.Error != nil {
		return utils.NewFatal("could not end session", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NewNotFound("session not found")
	}
	return nil
}

func (m *GuestSessionManager) activeGroup(tableID uint) (*models.GuestSessionGroup, error) {
	var group models.GuestSessionGroup
	err := m.DB.
		Where("table_id = ? AND is_active = ?", tableID, true).
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewFatal("could not look up session group", err)
	}
	return &group, nil
}
