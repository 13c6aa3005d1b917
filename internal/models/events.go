package models

import "time"

// Realtime event names, pushed to subscribed terminals
const (
	EventOrderCreated       = "order-created"
	EventOrderStatusUpdated = "order-status-updated"
	EventQueueUpdated       = "queue-updated"
	EventQueueStatus        = "queue-status"
	EventPaymentUpdated     = "payment-updated"
)

// Event is the envelope for every realtime emission. The same
// envelope is written to the Kafka transition log; Origin carries the
// emitting backend instance so relays can skip their own events.
type Event struct {
	EventID   string      `json:"event_id"`
	Event     string      `json:"event"`
	BranchID  string      `json:"branch_id"`
	Origin    string      `json:"origin"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// OrderStatusPayload is the payload of order-status-updated events
type OrderStatusPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// PaymentUpdatePayload is the payload of payment-updated events
type PaymentUpdatePayload struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	PaymentStatus string `json:"payment_status"`
}
