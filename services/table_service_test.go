package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/notifier"
	"github.com/qrdine/qrdine-server/utils"
)

func TestScanUnknownSalt(t *testing.T) {
	_, _, tables, _, _ := newTestServices(t)

	_, err := tables.Scan(Guest{}, "no-such-salt", "")
	require.Error(t, err)
	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, utils.KindNotFound, appErr.Kind)
}

func TestScanFirstGuestClaimsTable(t *testing.T) {
	db, sessions, tables, _, n := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	result, err := tables.Scan(Guest{}, table.Salt, "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Len(t, result.Passphrase, 6)
	assert.Equal(t, models.TableStatusOccupied, result.Table.Status)
	assert.True(t, sessions.HasActiveSession(table.ID, result.Token))
	assert.True(t, n.has(notifier.EventGuestJoined))

	var persisted models.Table
	require.NoError(t, db.First(&persisted, table.ID).Error)
	assert.Equal(t, models.TableStatusOccupied, persisted.Status)
}

func TestScanSecondGuestChallengedForPassphrase(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	first, err := tables.Scan(Guest{}, table.Salt, "")
	require.NoError(t, err)

	// No passphrase: challenge, no state change, no new session.
	challenge, err := tables.Scan(Guest{}, table.Salt, "")
	require.NoError(t, err)
	assert.True(t, challenge.PassphraseRequired)
	assert.Empty(t, challenge.Token)

	var count int64
	db.Model(&models.GuestSession{}).Where("table_id = ?", table.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	// Wrong passphrase surfaces as unauthorized.
	_, err = tables.Scan(Guest{}, table.Salt, "WRONG1")
	require.Error(t, err)
	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, utils.KindUnauthorized, appErr.Kind)

	// Correct passphrase joins the same seating with a distinct token.
	second, err := tables.Scan(Guest{}, table.Salt, first.Passphrase)
	require.NoError(t, err)
	assert.NotEmpty(t, second.Token)
	assert.NotEqual(t, first.Token, second.Token)

	var groups int64
	db.Model(&models.GuestSessionGroup{}).Where("table_id = ?", table.ID).Count(&groups)
	assert.EqualValues(t, 1, groups)
}

func TestScanResumesExistingSession(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	first, err := tables.Scan(Guest{}, table.Salt, "")
	require.NoError(t, err)

	again, err := tables.Scan(Guest{Token: first.Token}, table.Salt, "")
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Equal(t, first.Token, again.Token)

	var count int64
	db.Model(&models.GuestSession{}).Where("table_id = ?", table.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestScanRejectsGuestActiveElsewhere(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	tableA := seedTable(t, db, place.ID, models.TableStatusEmpty)
	tableB := seedTable(t, db, place.ID, models.TableStatusEmpty)

	atA, err := tables.Scan(Guest{}, tableA.Salt, "")
	require.NoError(t, err)

	_, err = tables.Scan(Guest{Token: atA.Token}, tableB.Salt, "")
	require.Error(t, err)
	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, utils.KindConflict, appErr.Kind)
}

func TestScanDisabledTableAlertsStaff(t *testing.T) {
	db, _, tables, _, n := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)
	require.NoError(t, db.Model(&table).Update("is_disabled", true).Error)

	_, err := tables.Scan(Guest{}, table.Salt, "")
	require.Error(t, err)
	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, utils.KindForbidden, appErr.Kind)
	assert.True(t, n.has(notifier.EventStaffNeeded))
}

func TestScanGuestCannotClaimReservedTable(t *testing.T) {
	db, _, tables, _, n := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusReserved)

	_, err := tables.Scan(Guest{}, table.Salt, "")
	require.Error(t, err)
	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, utils.KindConflict, appErr.Kind)
	assert.True(t, n.has(notifier.EventStaffNeeded))

	// The reservation survives and no session was handed out.
	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Equal(t, models.TableStatusReserved, reloaded.Status)

	var sessions int64
	db.Model(&models.GuestSession{}).Where("table_id = ?", table.ID).Count(&sessions)
	assert.EqualValues(t, 0, sessions)
}

func TestScanGuestBlockedOnStaffClaimedTable(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	_, err := tables.Scan(Staff{UserID: 1, PlaceID: place.ID, Role: models.RoleStaff}, table.Salt, "")
	require.NoError(t, err)

	// Occupied with no guest group: the party was seated by staff.
	_, err = tables.Scan(Guest{}, table.Salt, "")
	require.Error(t, err)
	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, utils.KindConflict, appErr.Kind)
}

func TestScanStaffClaimsWithoutSession(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	result, err := tables.Scan(Staff{UserID: 1, PlaceID: place.ID, Role: models.RoleStaff}, table.Salt, "")
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusOccupied, result.Table.Status)
	assert.Empty(t, result.Token)

	var count int64
	db.Model(&models.GuestSession{}).Where("table_id = ?", table.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestChangeStatusGuestOnlyEmpty(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	scan, err := tables.Scan(Guest{}, table.Salt, "")
	require.NoError(t, err)

	_, err = tables.ChangeStatus(Guest{Token: scan.Token}, table.Salt, models.TableStatusReserved)
	require.Error(t, err)
	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, utils.KindForbidden, appErr.Kind)
}

func TestChangeStatusIdempotentEmpty(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	// Already empty: silent no-op even without any session.
	result, err := tables.ChangeStatus(Guest{}, table.Salt, models.TableStatusEmpty)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusEmpty, result.Status)

	var sessionCount, orderCount int64
	db.Model(&models.GuestSession{}).Count(&sessionCount)
	db.Model(&models.Order{}).Count(&orderCount)
	assert.EqualValues(t, 0, sessionCount)
	assert.EqualValues(t, 0, orderCount)
}

func TestChangeStatusGuestWithoutSessionCannotReset(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	_, err := tables.Scan(Guest{}, table.Salt, "")
	require.NoError(t, err)

	_, err = tables.ChangeStatus(Guest{Token: "stranger"}, table.Salt, models.TableStatusEmpty)
	require.Error(t, err)
	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, utils.KindForbidden, appErr.Kind)
}

func TestChangeStatusStaffWrongPlace(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	_, err := tables.ChangeStatus(Staff{UserID: 9, PlaceID: place.ID + 1, Role: models.RoleStaff}, table.Salt, models.TableStatusReserved)
	require.Error(t, err)
	appErr, _ := utils.AsAppError(err)
	assert.Equal(t, utils.KindUnauthorized, appErr.Kind)
}

func TestChangeStatusStaffReserve(t *testing.T) {
	db, _, tables, _, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)

	result, err := tables.ChangeStatus(Staff{UserID: 1, PlaceID: place.ID, Role: models.RoleStaff}, table.Salt, models.TableStatusReserved)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusReserved, result.Status)
}

func TestStaffResetCascade(t *testing.T) {
	db, sessions, tables, orders, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)
	menu := seedMenuItem(t, db, place.ID, "Burger", 3.00, true)

	scan, err := tables.Scan(Guest{}, table.Salt, "")
	require.NoError(t, err)

	order, err := orders.AddOrder(Guest{Token: scan.Token}, table.ID,
		[]OrderItemInput{{MenuItemID: menu.ID, Quantity: 2}}, 0, nil)
	require.NoError(t, err)

	staff := Staff{UserID: 1, PlaceID: place.ID, Role: models.RoleStaff}
	_, err = orders.UpdateStatus(staff, order.ID, models.OrderStatusApproved, nil)
	require.NoError(t, err)

	result, err := tables.ChangeStatus(staff, table.Salt, models.TableStatusEmpty)
	require.NoError(t, err)
	assert.Equal(t, models.TableStatusEmpty, result.Status)

	// Open order force-closed.
	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusClosed, reloaded.Status)

	// Guest sessions all invalid.
	assert.False(t, sessions.HasActiveSession(table.ID, scan.Token))

	// Notifications for the table cleared.
	var notifs int64
	db.Model(&models.Notification{}).Where("table_id = ?", table.ID).Count(&notifs)
	assert.EqualValues(t, 0, notifs)
}

func TestGuestResetCascadeKeepsCancelledOrders(t *testing.T) {
	db, _, tables, orders, _ := newTestServices(t)
	place := seedPlace(t, db)
	table := seedTable(t, db, place.ID, models.TableStatusEmpty)
	menu := seedMenuItem(t, db, place.ID, "Cola", 1.50, true)

	scan, err := tables.Scan(Guest{}, table.Salt, "")
	require.NoError(t, err)
	guest := Guest{Token: scan.Token}

	order, err := orders.AddOrder(guest, table.ID,
		[]OrderItemInput{{MenuItemID: menu.ID, Quantity: 1}}, 0, nil)
	require.NoError(t, err)
	_, err = orders.UpdateStatus(guest, order.ID, models.OrderStatusCancelled, nil)
	require.NoError(t, err)

	_, err = tables.ChangeStatus(guest, table.Salt, models.TableStatusEmpty)
	require.NoError(t, err)

	// Cancelled is terminal: the reset must not touch it.
	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, reloaded.Status)

	var persisted models.Table
	require.NoError(t, db.First(&persisted, table.ID).Error)
	assert.Equal(t, models.TableStatusEmpty, persisted.Status)
}
