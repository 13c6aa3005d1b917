package store

import (
	"context"
	"fmt"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"
)

// CreateOrderTx persists an order, its lines and its kitchen queue
// item as a single transaction. Either all rows exist afterwards or
// none do.
func (s *Store) CreateOrderTx(ctx context.Context, order *models.Order, queueItem *models.KitchenQueueItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO orders (id, order_number, table_number, customer_name, status,
			subtotal, tax, discount, total_amount, notes, staff_id, branch_id,
			created_at, updated_at)
		VALUES (:id, :order_number, :table_number, :customer_name, :status,
			:subtotal, :tax, :discount, :total_amount, :notes, :staff_id, :branch_id,
			:created_at, :updated_at)`, order)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range order.Lines {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO order_items (id, order_id, menu_item_id, quantity, unit_price, total_price, notes)
			VALUES (:id, :order_id, :menu_item_id, :quantity, :unit_price, :total_price, :notes)`,
			&order.Lines[i])
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO kitchen_queue (id, order_id, status, station, priority, created_at)
		VALUES (:id, :order_id, :status, :station, :priority, :created_at)`, queueItem)
	if err != nil {
		return fmt.Errorf("failed to insert kitchen queue item: %w", err)
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order with its lines, scoped to a branch
func (s *Store) GetOrderByID(ctx context.Context, branchID, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 AND branch_id = $2", id, branchID)
	if err != nil {
		return nil, err
	}

	if err := s.loadOrderLines(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders retrieves branch orders newest first, optionally filtered by status
func (s *Store) ListOrders(ctx context.Context, branchID, status string) ([]models.Order, error) {
	var orders []models.Order
	var err error

	if status != "" {
		err = s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE branch_id = $1 AND status = $2 ORDER BY created_at DESC",
			branchID, status)
	} else {
		err = s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE branch_id = $1 ORDER BY created_at DESC", branchID)
	}
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadOrderLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *Store) loadOrderLines(ctx context.Context, order *models.Order) error {
	return s.db.SelectContext(ctx, &order.Lines,
		"SELECT * FROM order_items WHERE order_id = $1", order.ID)
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// StampOrderCompleted sets completed_at once the order reaches a
// completed state
func (s *Store) StampOrderCompleted(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET completed_at = NOW(), updated_at = NOW() WHERE id = $1 AND completed_at IS NULL",
		orderID)
	return err
}

// StampOrderPaid sets paid_at when a payment completes
func (s *Store) StampOrderPaid(ctx context.Context, orderID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET paid_at = NOW(), updated_at = NOW() WHERE id = $1",
		orderID)
	return err
}

// GetQueueItemByOrderID retrieves the kitchen queue item linked to an order
func (s *Store) GetQueueItemByOrderID(ctx context.Context, orderID string) (*models.KitchenQueueItem, error) {
	var item models.KitchenQueueItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM kitchen_queue WHERE order_id = $1", orderID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetQueueItemByID retrieves a queue item scoped by its order's branch
func (s *Store) GetQueueItemByID(ctx context.Context, branchID, id string) (*models.KitchenQueueItem, error) {
	var item models.KitchenQueueItem
	err := s.db.GetContext(ctx, &item, `
		SELECT kq.* FROM kitchen_queue kq
		JOIN orders o ON o.id = kq.order_id
		WHERE kq.id = $1 AND o.branch_id = $2`, id, branchID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListQueueItems retrieves a branch's kitchen queue, optionally
// filtered by status. Ordering by priority and age is applied in the
// service layer; the query keeps a stable base order for pagination.
func (s *Store) ListQueueItems(ctx context.Context, branchID, status string) ([]models.KitchenQueueItem, error) {
	var items []models.KitchenQueueItem
	var err error

	if status != "" {
		err = s.db.SelectContext(ctx, &items, `
			SELECT kq.* FROM kitchen_queue kq
			JOIN orders o ON o.id = kq.order_id
			WHERE o.branch_id = $1 AND kq.status = $2
			ORDER BY kq.created_at`, branchID, status)
	} else {
		err = s.db.SelectContext(ctx, &items, `
			SELECT kq.* FROM kitchen_queue kq
			JOIN orders o ON o.id = kq.order_id
			WHERE o.branch_id = $1
			ORDER BY kq.created_at`, branchID)
	}
	return items, err
}

// SaveQueueItem writes back a queue item's mutable fields
func (s *Store) SaveQueueItem(ctx context.Context, item *models.KitchenQueueItem) error {
	_, err := s.db.NamedExecContext(ctx, `
		UPDATE kitchen_queue
		SET status = :status, station = :station, priority = :priority,
			started_at = :started_at, completed_at = :completed_at
		WHERE id = :id`, item)
	return err
}

// SetQueuePriority overwrites a queue item's priority
func (s *Store) SetQueuePriority(ctx context.Context, id string, priority int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE kitchen_queue SET priority = $1 WHERE id = $2", priority, id)
	return err
}

// CreatePayment persists a new payment record
func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO payments (id, order_id, amount, payment_method_id, status,
			transaction_id, notes, staff_id, branch_id, created_at)
		VALUES (:id, :order_id, :amount, :payment_method_id, :status,
			:transaction_id, :notes, :staff_id, :branch_id, :created_at)`, payment)
	return err
}

// GetPaymentByID retrieves a payment scoped to a branch
func (s *Store) GetPaymentByID(ctx context.Context, branchID, id string) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE id = $1 AND branch_id = $2", id, branchID)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListPayments retrieves branch payments newest first, optionally
// filtered by order
func (s *Store) ListPayments(ctx context.Context, branchID, orderID string) ([]models.Payment, error) {
	var payments []models.Payment
	var err error

	if orderID != "" {
		err = s.db.SelectContext(ctx, &payments,
			"SELECT * FROM payments WHERE branch_id = $1 AND order_id = $2 ORDER BY created_at DESC",
			branchID, orderID)
	} else {
		err = s.db.SelectContext(ctx, &payments,
			"SELECT * FROM payments WHERE branch_id = $1 ORDER BY created_at DESC", branchID)
	}
	return payments, err
}

// UpdatePayment writes back a payment's status, transaction id and notes
func (s *Store) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := s.db.NamedExecContext(ctx, `
		UPDATE payments
		SET status = :status, transaction_id = :transaction_id, notes = :notes
		WHERE id = :id`, payment)
	return err
}

// SumCompletedPayments returns the total of COMPLETED payments for an order
func (s *Store) SumCompletedPayments(ctx context.Context, orderID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1 AND status = $2",
		orderID, models.PaymentStatusCompleted)
	return sum, err
}
