package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/notifier"
	"github.com/qrdine/qrdine-server/utils"
)

// ScanResult is what a QR scan hands back to the client. Exactly one of
// the three shapes is populated: a token (session started or resumed), a
// passphrase challenge, or plain table info for staff.
type ScanResult struct {
	Table              models.Table `json:"table"`
	Token              string       `json:"token,omitempty"`
	Passphrase         string       `json:"passphrase,omitempty"`
	PassphraseRequired bool         `json:"passphrase_required,omitempty"`
	Resumed            bool         `json:"resumed,omitempty"`
}

// TableService is the entry point for QR scans and table status changes.
// It drives the occupancy state machine and the guest session lifecycle
// that hangs off it.
type TableService struct {
	DB       *gorm.DB
	Sessions *GuestSessionManager
	Orders   *OrderService
	Notifier notifier.Notifier
}

func NewTableService(db *gorm.DB, sessions *GuestSessionManager, orders *OrderService, n notifier.Notifier) *TableService {
	return &TableService{DB: db, Sessions: sessions, Orders: orders, Notifier: n}
}

// Scan resolves a scanned salt and decides, per actor and table state,
// whether to start a session, resume one, challenge for a passphrase or
// reject.
func (s *TableService) Scan(actor Actor, salt, passphrase string) (*ScanResult, error) {
	table, err := s.tableBySalt(salt)
	if err != nil {
		return nil, err
	}

	staff, isStaff := actor.(Staff)
	if isStaff {
		// Physical presence claim: staff at the table always means
		// occupied, no session involved.
		if err := s.DB.Model(table).Update("status", models.TableStatusOccupied).Error; err != nil {
			return nil, utils.NewFatal("could not update table", err)
		}
		table.Status = models.TableStatusOccupied
		s.Notifier.Notify(table.ID, fmt.Sprintf("Table %s claimed by staff #%d", table.Label, staff.UserID), notifier.EventTableStatus, false)
		return &ScanResult{Table: *table}, nil
	}

	guest := actor.(Guest)

	if table.IsDisabled {
		// The QR is unusable; a human has to intervene.
		s.Notifier.Notify(table.ID, fmt.Sprintf("Guest scanned disabled table %s", table.Label), notifier.EventStaffNeeded, true)
		return nil, utils.NewForbidden("table is currently unavailable")
	}

	if s.Sessions.HasActiveSession(table.ID, guest.Token) {
		return &ScanResult{Table: *table, Token: guest.Token, Resumed: true}, nil
	}

	conflict, err := s.Sessions.GetConflictingSession(guest.Token, table.ID)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, utils.NewConflict("an active session exists on another table")
	}

	group, err := s.Sessions.activeGroup(table.ID)
	if err != nil {
		return nil, err
	}

	if group == nil {
		// No joinable group. Only an empty table may be claimed by a
		// guest; a reservation or a staff claim needs a human to seat
		// the party first.
		if table.Status != models.TableStatusEmpty {
			s.Notifier.Notify(table.ID, fmt.Sprintf("Guest scanned %s table %s", table.Status, table.Label), notifier.EventStaffNeeded, true)
			return nil, utils.NewConflict("table is not open for seating")
		}

		// First scan of this seating: claim the table and mint the group.
		var session *models.GuestSession
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(table).Update("status", models.TableStatusOccupied).Error; err != nil {
				return utils.NewFatal("could not update table", err)
			}
			var txErr error
			session, group, txErr = s.Sessions.WithTx(tx).CreateSession(table.ID, "")
			return txErr
		})
		if err != nil {
			return nil, err
		}
		table.Status = models.TableStatusOccupied
		s.Notifier.Notify(table.ID, fmt.Sprintf("New guest seated at table %s", table.Label), notifier.EventGuestJoined, true)
		return &ScanResult{Table: *table, Token: session.Token, Passphrase: group.Passphrase}, nil
	}

	if passphrase == "" {
		// Occupied seating; challenge without mutating anything.
		return &ScanResult{Table: *table, PassphraseRequired: true}, nil
	}

	session, _, err := s.Sessions.CreateSession(table.ID, passphrase)
	if err != nil {
		return nil, err
	}
	s.Notifier.Notify(table.ID, fmt.Sprintf("Another guest joined table %s", table.Label), notifier.EventGuestJoined, true)
	return &ScanResult{Table: *table, Token: session.Token}, nil
}

// ChangeStatus moves a table through its occupancy machine. Guests may
// only reset their own table to empty; staff of the place may set any
// status. Resetting to empty cascades: notifications cleared, the group's
// sessions ended, open orders force-closed.
func (s *TableService) ChangeStatus(actor Actor, salt, newStatus string) (*models.Table, error) {
	table, err := s.tableBySalt(salt)
	if err != nil {
		return nil, err
	}

	if !models.IsValidTableStatus(newStatus) {
		return nil, utils.NewValidation(fmt.Sprintf("unknown table status %q", newStatus))
	}

	switch a := actor.(type) {
	case Guest:
		if newStatus != models.TableStatusEmpty {
			return nil, utils.NewForbidden("not allowed")
		}
		if table.Status == models.TableStatusEmpty {
			return table, nil
		}
		if !s.Sessions.HasActiveSession(table.ID, a.Token) {
			return nil, utils.NewForbidden("not allowed")
		}
		if err := s.resetTable(table); err != nil {
			return nil, err
		}
		s.Notifier.Notify(table.ID, fmt.Sprintf("Table %s reset to empty", table.Label), notifier.EventTableStatus, true)
		return table, nil

	case Staff:
		if a.PlaceID != table.PlaceID {
			return nil, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot manage a table of place %d", a.PlaceID, table.PlaceID))
		}
		if newStatus == models.TableStatusEmpty {
			if table.Status == models.TableStatusEmpty {
				return table, nil
			}
			if err := s.resetTable(table); err != nil {
				return nil, err
			}
		} else {
			if err := s.DB.Model(table).Update("status", newStatus).Error; err != nil {
				return nil, utils.NewFatal("could not update table", err)
			}
			table.Status = newStatus
		}
		s.Notifier.Notify(table.ID, fmt.Sprintf("Table %s set to %s", table.Label, table.Status), notifier.EventTableStatus, false)
		return table, nil
	}

	return nil, utils.NewForbidden("not allowed")
}

// resetTable runs the empty-reset cascade as one transaction.
func (s *TableService) resetTable(table *models.Table) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("table_id = ?", table.ID).Delete(&models.Notification{}).Error; err != nil {
			return utils.NewFatal("could not clear notifications", err)
		}
		if err := s.Sessions.WithTx(tx).EndGroupSession(table.ID); err != nil {
			return err
		}
		if err := s.Orders.CloseOpenOrders(tx, table.ID); err != nil {
			return err
		}
		if err := tx.Model(table).Update("status", models.TableStatusEmpty).Error; err != nil {
			return utils.NewFatal("could not update table", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	table.Status = models.TableStatusEmpty
	utils.InfoLogger.Printf("Table %d reset to empty", table.ID)
	return nil
}

func (s *TableService) tableBySalt(salt string) (*models.Table, error) {
	var table models.Table
	err := s.DB.Where("salt = ?", salt).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFound("table not found")
	}
	if err != nil {
		return nil, utils.NewFatal("could not load table", err)
	}
	return &table, nil
}
