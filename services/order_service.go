package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qrdine/qrdine-server/models"
	"github.com/qrdine/qrdine-server/notifier"
	"github.com/qrdine/qrdine-server/utils"
)

// OrderItemInput is one requested order line as submitted by a client.
// UnitPrice is informational only; the authoritative price always comes
// from the menu item.
type OrderItemInput struct {
	MenuItemID uint    `json:"menu_item_id"`
	Quantity   int     `json:"quantity"`
	Discount   float64 `json:"discount"`
	UnitPrice  float64 `json:"unit_price"`
}

// OrderService validates order creation, computes authoritative pricing,
// enforces actor-specific status transitions and reconciles line-item
// edits.
type OrderService struct {
	DB       *gorm.DB
	Sessions *GuestSessionManager
	Notifier notifier.Notifier
}

func NewOrderService(db *gorm.DB, sessions *GuestSessionManager, n notifier.Notifier) *OrderService {
	return &OrderService{DB: db, Sessions: sessions, Notifier: n}
}

// AddOrder creates an order with its line items as one atomic unit.
// clientTotal is the total the client computed for itself; a mismatch
// against the server-side total is logged but never rejected.
func (s *OrderService) AddOrder(actor Actor, tableID uint, items []OrderItemInput, clientTotal float64, note *string) (*models.Order, error) {
	var table models.Table
	if err := s.DB.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("table not found")
		}
		return nil, utils.NewFatal("could not load table", err)
	}

	session, err := s.authorizeTableAccess(actor, &table)
	if err != nil {
		return nil, err
	}

	if table.Status != models.TableStatusOccupied {
		return nil, utils.NewInvalidState("orders require an occupied table")
	}

	if len(items) == 0 {
		return nil, utils.NewValidation("order must contain at least one item")
	}

	merged := mergeOrderItems(items)
	lines, menus, err := s.priceItems(&table, merged)
	if err != nil {
		return nil, err
	}

	total := computeOrderTotal(lines)
	if clientTotal != 0 && clientTotal != total {
		utils.InfoLogger.Printf("Client total %.2f differs from computed total %.2f on table %d", clientTotal, total, tableID)
	}

	order := models.Order{
		TableID:    tableID,
		Status:     models.OrderStatusCreated,
		TotalPrice: total,
		Note:       note,
	}
	if session != nil {
		order.GuestSessionID = &session.ID
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return utils.NewFatal("could not create order", err)
		}
		for i := range lines {
			lines[i].OrderID = order.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return utils.NewFatal("could not create order items", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Items = lines

	_, isGuest := actor.(Guest)
	s.Notifier.Notify(tableID,
		fmt.Sprintf("New order #%d on table %s: %s (total %.2f)", order.ID, table.Label, summarizeLines(lines, menus), total),
		notifier.EventOrderCreated, isGuest)

	utils.InfoLogger.Printf("Order %d created on table %d, total %.2f", order.ID, tableID, total)
	return &order, nil
}

// UpdateStatus moves an order through its status machine. Guests are held
// to a small whitelist; staff of the place may set any valid status.
func (s *OrderService) UpdateStatus(actor Actor, orderID uint, newStatus string, paymentType *string) (*models.Order, error) {
	order, table, err := s.orderWithTable(orderID)
	if err != nil {
		return nil, err
	}

	if !models.IsValidOrderStatus(newStatus) {
		return nil, utils.NewValidation(fmt.Sprintf("unknown order status %q", newStatus))
	}

	isGuest := false
	switch a := actor.(type) {
	case Guest:
		isGuest = true
		if !s.Sessions.HasActiveSession(table.ID, a.Token) {
			return nil, utils.NewForbidden("not allowed")
		}
		if !guestStatusTransitionAllowed(order.Status, newStatus) {
			return nil, utils.NewForbidden("not allowed")
		}
	case Staff:
		if a.PlaceID != table.PlaceID {
			return nil, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot access an order of place %d", a.PlaceID, table.PlaceID))
		}
	}

	order.Status = newStatus
	if paymentType != nil {
		order.PaymentType = paymentType
	}
	if err := s.DB.Save(order).Error; err != nil {
		return nil, utils.NewFatal("could not update order", err)
	}

	origin := "staff"
	if isGuest {
		origin = "guest"
	}
	s.Notifier.Notify(table.ID,
		fmt.Sprintf("Order #%d moved to %s by %s", order.ID, newStatus, origin),
		notifier.EventOrderStatus, isGuest)

	return order, nil
}

// UpdateOrder replaces an order's contents, diffing against the existing
// line items so unrelated rows keep their identity. Guests may only edit
// cancelled orders; staff are blocked on closed orders unless admin.
func (s *OrderService) UpdateOrder(actor Actor, orderID uint, items []OrderItemInput) (*models.Order, error) {
	order, table, err := s.orderWithTable(orderID)
	if err != nil {
		return nil, err
	}

	isGuest := false
	switch a := actor.(type) {
	case Guest:
		isGuest = true
		if !s.Sessions.HasActiveSession(table.ID, a.Token) {
			return nil, utils.NewForbidden("not allowed")
		}
		if order.Status != models.OrderStatusCancelled {
			return nil, utils.NewForbidden("not allowed")
		}
	case Staff:
		if a.PlaceID != table.PlaceID {
			return nil, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot access an order of place %d", a.PlaceID, table.PlaceID))
		}
		if order.Status == models.OrderStatusClosed && a.Role != models.RoleAdmin {
			return nil, utils.NewForbidden("closed orders cannot be edited")
		}
	}

	if len(items) == 0 {
		return nil, utils.NewValidation("order must contain at least one item")
	}

	merged := mergeOrderItems(items)
	desired, _, err := s.priceItems(table, merged)
	if err != nil {
		return nil, err
	}
	for i := range desired {
		desired[i].OrderID = order.ID
	}

	toInsert, toUpdate, toDelete := reconcileOrderItems(order.Items, desired)
	total := computeOrderTotal(desired)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if len(toInsert) > 0 {
			if err := tx.Create(&toInsert).Error; err != nil {
				return utils.NewFatal("could not insert order items", err)
			}
		}
		for _, line := range toUpdate {
			if err := tx.Model(&models.ProductPerOrder{}).
				Where("order_id = ? AND menu_item_id = ?", line.OrderID, line.MenuItemID).
				Updates(map[string]interface{}{
					"quantity":   line.Quantity,
					"unit_price": line.UnitPrice,
					"discount":   line.Discount,
				}).Error; err != nil {
				return utils.NewFatal("could not update order items", err)
			}
		}
		for _, line := range toDelete {
			if err := tx.Where("order_id = ? AND menu_item_id = ?", line.OrderID, line.MenuItemID).
				Delete(&models.ProductPerOrder{}).Error; err != nil {
				return utils.NewFatal("could not delete order items", err)
			}
		}
		// Keyed update: going through the loaded order would save its
		// stale Items association and resurrect the deleted lines.
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("total_price", total).Error; err != nil {
			return utils.NewFatal("could not update order total", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.TotalPrice = total
	if err := s.DB.Where("order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
		return nil, utils.NewFatal("could not reload order items", err)
	}

	s.Notifier.Notify(table.ID,
		fmt.Sprintf("Order #%d contents updated, new total %.2f", order.ID, total),
		notifier.EventOrderUpdated, isGuest)

	return order, nil
}

// DeleteOrder removes an order permanently. Only cancelled orders are
// eligible for hard deletion.
func (s *OrderService) DeleteOrder(actor Actor, orderID uint) error {
	order, table, err := s.orderWithTable(orderID)
	if err != nil {
		return err
	}

	if order.Status != models.OrderStatusCancelled {
		return utils.NewInvalidState("only cancelled orders can be deleted")
	}

	switch a := actor.(type) {
	case Guest:
		if !s.Sessions.HasActiveSession(table.ID, a.Token) {
			return utils.NewForbidden("not allowed")
		}
	case Staff:
		if a.PlaceID != table.PlaceID {
			return utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot access an order of place %d", a.PlaceID, table.PlaceID))
		}
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.ProductPerOrder{}).Error; err != nil {
			return utils.NewFatal("could not delete order items", err)
		}
		if err := tx.Delete(&models.Order{}, order.ID).Error; err != nil {
			return utils.NewFatal("could not delete order", err)
		}
		return nil
	})
}

// CloseOpenOrders force-closes every non-terminal order on a table. Part
// of the table reset cascade, so it runs on the caller's transaction.
func (s *OrderService) CloseOpenOrders(tx *gorm.DB, tableID uint) error {
	if err := tx.Model(&models.Order{}).
		Where("table_id = ? AND status NOT IN ?", tableID,
			[]string{models.OrderStatusClosed, models.OrderStatusCancelled}).
		Update("status", models.OrderStatusClosed).Error; err != nil {
		return utils.NewFatal("could not close open orders", err)
	}
	return nil
}

func (s *OrderService) orderWithTable(orderID uint) (*models.Order, *models.Table, error) {
	var order models.Order
	if err := s.DB.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.NewNotFound("order not found")
		}
		return nil, nil, utils.NewFatal("could not load order", err)
	}
	var table models.Table
	if err := s.DB.First(&table, order.TableID).Error; err != nil {
		return nil, nil, utils.NewFatal("could not load table", err)
	}
	return &order, &table, nil
}

// authorizeTableAccess checks table access for an actor and returns the
// guest's session when the actor is a guest.
func (s *OrderService) authorizeTableAccess(actor Actor, table *models.Table) (*models.GuestSession, error) {
	switch a := actor.(type) {
	case Guest:
		session, err := s.Sessions.SessionByToken(table.ID, a.Token)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, utils.NewForbidden("not allowed")
		}
		return session, nil
	case Staff:
		if a.PlaceID != table.PlaceID {
			return nil, utils.NewUnauthorized(fmt.Sprintf("staff of place %d cannot access a table of place %d", a.PlaceID, table.PlaceID))
		}
		return nil, nil
	}
	return nil, utils.NewForbidden("not allowed")
}

// priceItems resolves every merged input line against the catalog,
// collecting all violations into one validation error instead of failing
// on the first bad row. Unit prices are snapshotted from the menu items.
func (s *OrderService) priceItems(table *models.Table, merged []OrderItemInput) ([]models.ProductPerOrder, map[uint]models.MenuItem, error) {
	var problems []string
	lines := make([]models.ProductPerOrder, 0, len(merged))
	menus := make(map[uint]models.MenuItem, len(merged))

	for _, in := range merged {
		if in.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("menu item %d: quantity must be positive", in.MenuItemID))
			continue
		}
		if in.Discount < 0 || in.Discount > 100 {
			problems = append(problems, fmt.Sprintf("menu item %d: discount must be between 0 and 100", in.MenuItemID))
			continue
		}

		var menu models.MenuItem
		err := s.DB.First(&menu, in.MenuItemID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			problems = append(problems, fmt.Sprintf("menu item %d not found", in.MenuItemID))
			continue
		}
		if err != nil {
			return nil, nil, utils.NewFatal("could not load menu item", err)
		}
		if menu.PlaceID != table.PlaceID {
			problems = append(problems, fmt.Sprintf("menu item %d does not belong to this place", in.MenuItemID))
			continue
		}
		if !menu.IsAvailable {
			problems = append(problems, fmt.Sprintf("menu item %q is unavailable", menu.Name))
			continue
		}

		menus[menu.ID] = menu
		lines = append(lines, models.ProductPerOrder{
			MenuItemID: menu.ID,
			Quantity:   in.Quantity,
			UnitPrice:  menu.Price,
			Discount:   in.Discount,
		})
	}

	if len(problems) > 0 {
		return nil, nil, utils.NewValidation("invalid order items: " + strings.Join(problems, "; "))
	}
	return lines, menus, nil
}

func summarizeLines(lines []models.ProductPerOrder, menus map[uint]models.MenuItem) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		name := menus[line.MenuItemID].Name
		if name == "" {
			name = fmt.Sprintf("item %d", line.MenuItemID)
		}
		parts = append(parts, fmt.Sprintf("%d× %s", line.Quantity, name))
	}
	return strings.Join(parts, ", ")
}

// mergeOrderItems collapses duplicate menu-item rows: quantities sum, the
// highest offered discount wins, first-appearance order is kept.
func mergeOrderItems(items []OrderItemInput) []OrderItemInput {
	merged := make([]OrderItemInput, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, in := range items {
		if i, ok := index[in.MenuItemID]; ok {
			merged[i].Quantity += in.Quantity
			if in.Discount > merged[i].Discount {
				merged[i].Discount = in.Discount
			}
			continue
		}
		index[in.MenuItemID] = len(merged)
		merged = append(merged, in)
	}
	return merged
}

// reconcileOrderItems diffs desired lines against current ones by menu
// item. Matching rows with changed quantity/price/discount become
// updates, so unrelated rows and row identity survive the edit.
func reconcileOrderItems(current, desired []models.ProductPerOrder) (toInsert, toUpdate, toDelete []models.ProductPerOrder) {
	existing := make(map[uint]models.ProductPerOrder, len(current))
	for _, line := range current {
		existing[line.MenuItemID] = line
	}

	for _, want := range desired {
		have, ok := existing[want.MenuItemID]
		if !ok {
			toInsert = append(toInsert, want)
			continue
		}
		delete(existing, want.MenuItemID)
		if have.Quantity != want.Quantity || have.UnitPrice != want.UnitPrice || have.Discount != want.Discount {
			have.Quantity = want.Quantity
			have.UnitPrice = want.UnitPrice
			have.Discount = want.Discount
			toUpdate = append(toUpdate, have)
		}
	}

	for _, line := range existing {
		toDelete = append(toDelete, line)
	}
	return toInsert, toUpdate, toDelete
}

// Guest-permitted status transitions, keyed (from, to). Everything else
// is forbidden for guests; staff are not held to a transition table.
var guestOrderTransitions = map[[2]string]struct{}{
	{models.OrderStatusDelivered, models.OrderStatusPaymentRequested}:        {},
	{models.OrderStatusPaymentRequested, models.OrderStatusPaymentRequested}: {},
	{models.OrderStatusCreated, models.OrderStatusCancelled}:                 {},
}

func guestStatusTransitionAllowed(from, to string) bool {
	_, ok := guestOrderTransitions[[2]string{from, to}]
	return ok
}

func computeLineTotal(unitPrice float64, quantity int, discount float64) decimal.Decimal {
	factor := decimal.NewFromInt(100).Sub(decimal.NewFromFloat(discount)).Div(decimal.NewFromInt(100))
	return decimal.NewFromFloat(unitPrice).
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(factor)
}

// computeOrderTotal sums line totals in decimal and rounds to cents once,
// at the end.
func computeOrderTotal(lines []models.ProductPerOrder) float64 {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(computeLineTotal(line.UnitPrice, line.Quantity, line.Discount))
	}
	result, _ := total.Round(2).Float64()
	return result
}
