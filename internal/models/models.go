package models

import "time"

// MenuItem represents an item on the menu catalog (read-only here,
// catalog CRUD lives outside this service)
type MenuItem struct {
	ID        string    `db:"id" json:"id"`
	BranchID  string    `db:"branch_id" json:"branch_id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	Available bool      `db:"available" json:"available"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PaymentMethod represents a way of paying at a branch
type PaymentMethod struct {
	ID       string `db:"id" json:"id"`
	BranchID string `db:"branch_id" json:"branch_id"`
	Name     string `db:"name" json:"name"`
	Active   bool   `db:"active" json:"active"`
}

// Order represents a customer order
type Order struct {
	ID           string      `db:"id" json:"id"`
	OrderNumber  string      `db:"order_number" json:"order_number"`
	TableNumber  *int        `db:"table_number" json:"table_number,omitempty"`
	CustomerName *string     `db:"customer_name" json:"customer_name,omitempty"`
	Status       string      `db:"status" json:"status"`
	Subtotal     int64       `db:"subtotal" json:"subtotal"`
	Tax          int64       `db:"tax" json:"tax"`
	Discount     int64       `db:"discount" json:"discount"`
	TotalAmount  int64       `db:"total_amount" json:"total_amount"`
	Notes        *string     `db:"notes" json:"notes,omitempty"`
	StaffID      string      `db:"staff_id" json:"staff_id"`
	BranchID     string      `db:"branch_id" json:"branch_id"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
	CompletedAt  *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	PaidAt       *time.Time  `db:"paid_at" json:"paid_at,omitempty"`
	Lines        []OrderLine `db:"-" json:"items,omitempty"`
}

// OrderLine represents a single line in an order. UnitPrice is a
// snapshot of the menu price at order time and never changes after.
type OrderLine struct {
	ID         string  `db:"id" json:"id"`
	OrderID    string  `db:"order_id" json:"order_id"`
	MenuItemID string  `db:"menu_item_id" json:"menu_item_id"`
	Quantity   int     `db:"quantity" json:"quantity"`
	UnitPrice  int64   `db:"unit_price" json:"unit_price"`
	TotalPrice int64   `db:"total_price" json:"total_price"`
	Notes      *string `db:"notes" json:"notes,omitempty"`
}

// KitchenQueueItem mirrors one order on the kitchen display. Exactly
// one exists per order, created in the same transaction as the order.
type KitchenQueueItem struct {
	ID          string     `db:"id" json:"id"`
	OrderID     string     `db:"order_id" json:"order_id"`
	Status      string     `db:"status" json:"status"`
	Station     string     `db:"station" json:"station"`
	Priority    int        `db:"priority" json:"priority"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	Order       *Order     `db:"-" json:"order,omitempty"`
}

// Payment represents one payment against an order
type Payment struct {
	ID              string    `db:"id" json:"id"`
	OrderID         string    `db:"order_id" json:"order_id"`
	Amount          int64     `db:"amount" json:"amount"`
	PaymentMethodID string    `db:"payment_method_id" json:"payment_method_id"`
	Status          string    `db:"status" json:"status"`
	TransactionID   *string   `db:"transaction_id" json:"transaction_id,omitempty"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	StaffID         string    `db:"staff_id" json:"staff_id"`
	BranchID        string    `db:"branch_id" json:"branch_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Order statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusServed    = "SERVED"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Kitchen queue statuses
const (
	KitchenStatusNew            = "NEW"
	KitchenStatusAccepted       = "ACCEPTED"
	KitchenStatusPreparing      = "PREPARING"
	KitchenStatusReadyForPickup = "READY_FOR_PICKUP"
	KitchenStatusCompleted      = "COMPLETED"
	KitchenStatusCancelled      = "CANCELLED"
)

// Payment statuses
const (
	PaymentStatusPending    = "PENDING"
	PaymentStatusProcessing = "PROCESSING"
	PaymentStatusCompleted  = "COMPLETED"
	PaymentStatusFailed     = "FAILED"
	PaymentStatusRefunded   = "REFUNDED"
)

// DefaultStation is assigned to new kitchen queue items
const DefaultStation = "Main"

var orderStatuses = map[string]bool{
	OrderStatusPending:   true,
	OrderStatusConfirmed: true,
	OrderStatusPreparing: true,
	OrderStatusReady:     true,
	OrderStatusServed:    true,
	OrderStatusCompleted: true,
	OrderStatusCancelled: true,
}

var kitchenStatuses = map[string]bool{
	KitchenStatusNew:            true,
	KitchenStatusAccepted:       true,
	KitchenStatusPreparing:      true,
	KitchenStatusReadyForPickup: true,
	KitchenStatusCompleted:      true,
	KitchenStatusCancelled:      true,
}

var paymentStatuses = map[string]bool{
	PaymentStatusPending:    true,
	PaymentStatusProcessing: true,
	PaymentStatusCompleted:  true,
	PaymentStatusFailed:     true,
	PaymentStatusRefunded:   true,
}

// ValidOrderStatus reports whether s is a recognized order status
func ValidOrderStatus(s string) bool { return orderStatuses[s] }

// ValidKitchenStatus reports whether s is a recognized kitchen status
func ValidKitchenStatus(s string) bool { return kitchenStatuses[s] }

// ValidPaymentStatus reports whether s is a recognized payment status
func ValidPaymentStatus(s string) bool { return paymentStatuses[s] }
