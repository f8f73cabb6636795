package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/utils"
)

// fakeNotifier records events so tests can assert on notifications
// without a websocket hub.
type fakeNotifier struct {
	mu       sync.Mutex
	events   []string
	messages []string
}

func (f *fakeNotifier) Notify(tableID uint, message, eventKind string, guestOriginated bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventKind)
	f.messages = append(f.messages, message)
}

func (f *fakeNotifier) has(kind string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e == kind {
			return true
		}
	}
	return false
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	// A named in-memory database keeps each test isolated while letting
	// gorm's pooled connections see the same data.
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Business{},
		&models.Place{},
		&models.User{},
		&models.MenuItem{},
		&models.Table{},
		&models.GuestSessionGroup{},
		&models.GuestSession{},
		&models.Order{},
		&models.ProductPerOrder{},
		&models.Notification{},
	))
	return db
}

func newTestServices(t *testing.T) (*gorm.DB, *GuestSessionManager, *TableService, *OrderService, *fakeNotifier) {
	t.Helper()
	db := setupTestDB(t)
	n := &fakeNotifier{}
	sessions := NewGuestSessionManager(db)
	orders := NewOrderService(db, sessions, n)
	tables := NewTableService(db, sessions, orders, n)
	return db, sessions, tables, orders, n
}

func seedPlace(t *testing.T, db *gorm.DB) models.Place {
	t.Helper()
	business := models.Business{Name: "Test Business"}
	require.NoError(t, db.Create(&business).Error)
	place := models.Place{BusinessID: business.ID, Name: "Test Place"}
	require.NoError(t, db.Create(&place).Error)
	return place
}

func seedTable(t *testing.T, db *gorm.DB, placeID uint, status string) models.Table {
	t.Helper()
	table := models.Table{
		PlaceID: placeID,
		Label:   "T1",
		Status:  status,
		Salt:    utils.NewTableSalt(),
	}
	require.NoError(t, db.Create(&table).Error)
	return table
}

func seedMenuItem(t *testing.T, db *gorm.DB, placeID uint, name string, price float64, available bool) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		PlaceID:     placeID,
		Name:        name,
		Price:       price,
		IsAvailable: available,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}
