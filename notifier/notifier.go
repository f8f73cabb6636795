package notifier

// Event kinds relayed to staff/guest clients.
const (
	EventGuestJoined  = "guest_joined"
	EventStaffNeeded  = "staff_needed"
	EventOrderCreated = "order_created"
	EventOrderStatus  = "order_status"
	EventOrderUpdated = "order_updated"
	EventTableStatus  = "table_status"
)

// Notifier relays lifecycle events to connected clients. Delivery is
// fire-and-forget: a failed notification never fails the operation that
// triggered it.
type Notifier interface {
	Notify(tableID uint, message, eventKind string, guestOriginated bool)
}
