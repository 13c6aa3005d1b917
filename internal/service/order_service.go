package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"
	"github.com/LIGAWA25471/Villadelsolrms/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the persistence surface the order engine needs
type OrderStore interface {
	CreateOrderTx(ctx context.Context, order *models.Order, queueItem *models.KitchenQueueItem) error
	GetOrderByID(ctx context.Context, branchID, id string) (*models.Order, error)
	ListOrders(ctx context.Context, branchID, status string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	StampOrderCompleted(ctx context.Context, orderID string) error
	GetQueueItemByOrderID(ctx context.Context, orderID string) (*models.KitchenQueueItem, error)
	SaveQueueItem(ctx context.Context, item *models.KitchenQueueItem) error
}

// MenuLookup resolves menu items for order validation
type MenuLookup interface {
	MenuItemsByIDs(ctx context.Context, branchID string, ids []string) ([]models.MenuItem, error)
}

// OrderSequencer allocates branch-scoped monotonic order sequence numbers
type OrderSequencer interface {
	Next(ctx context.Context, branchID string) (int64, error)
}

// EventSink receives state-change notifications after successful
// persistence. Implementations must never block the command path.
type EventSink interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderStatusUpdated(ctx context.Context, branchID, orderID, status string)
	QueueUpdated(ctx context.Context, branchID string, item *models.KitchenQueueItem)
	PaymentUpdated(ctx context.Context, branchID, orderID, paymentID, status string)
}

// OrderService owns the order lifecycle
type OrderService struct {
	store   OrderStore
	menu    MenuLookup
	seq     OrderSequencer
	events  EventSink
	taxRate float64
	logger  *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, menu MenuLookup, seq OrderSequencer, events EventSink, taxRate float64) *OrderService {
	return &OrderService{
		store:   store,
		menu:    menu,
		seq:     seq,
		events:  events,
		taxRate: taxRate,
		logger:  util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Items        []OrderLineRequest `json:"items" binding:"required,min=1"`
	TableNumber  *int               `json:"table_number,omitempty"`
	CustomerName *string            `json:"customer_name,omitempty"`
	Notes        *string            `json:"notes,omitempty"`
}

// OrderLineRequest represents one line in a create request
type OrderLineRequest struct {
	MenuItemID string  `json:"menu_item_id" binding:"required"`
	Quantity   int     `json:"quantity" binding:"required,min=1"`
	Notes      *string `json:"notes,omitempty"`
}

// CreateOrder validates the line list, snapshots prices, computes
// totals and persists the order together with its kitchen queue item
// in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, branchID, staffID string, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order has no items: %w", ErrValidation)
	}

	menuItems, err := s.resolveMenuItems(ctx, branchID, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:           uuid.New().String(),
		OrderNumber:  s.nextOrderNumber(ctx, branchID),
		TableNumber:  req.TableNumber,
		CustomerName: req.CustomerName,
		Status:       models.OrderStatusPending,
		Notes:        req.Notes,
		StaffID:      staffID,
		BranchID:     branchID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var subtotal int64
	for _, line := range req.Items {
		item := menuItems[line.MenuItemID]
		totalPrice := item.Price * int64(line.Quantity)
		subtotal += totalPrice
		order.Lines = append(order.Lines, models.OrderLine{
			ID:         uuid.New().String(),
			OrderID:    order.ID,
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  item.Price,
			TotalPrice: totalPrice,
			Notes:      line.Notes,
		})
	}

	order.Subtotal = subtotal
	order.Tax = roundTax(subtotal, s.taxRate)
	order.TotalAmount = order.Subtotal + order.Tax - order.Discount

	queueItem := &models.KitchenQueueItem{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Status:    models.KitchenStatusNew,
		Station:   models.DefaultStation,
		Priority:  0,
		CreatedAt: now,
	}

	if err := s.store.CreateOrderTx(ctx, order, queueItem); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w: %v", ErrStoreUnavailable, err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("branch_id", branchID))

	s.events.OrderCreated(ctx, order)
	return order, nil
}

// UpdateStatus moves an order to the given status. Any recognized
// status is accepted as a target; kitchen sync hangs off specific
// values. The queue sync is best-effort once the order update has
// been persisted.
func (s *OrderService) UpdateStatus(ctx context.Context, branchID, orderID, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("order status %q: %w", status, ErrInvalidStatus)
	}

	order, err := s.store.GetOrderByID(ctx, branchID, orderID)
	if err != nil {
		return nil, wrapStoreErr(err, "order")
	}

	if err := s.store.UpdateOrderStatus(ctx, order.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update order: %w: %v", ErrStoreUnavailable, err)
	}

	now := time.Now().UTC()
	order.Status = status
	order.UpdatedAt = now

	if status == models.OrderStatusCompleted {
		if err := s.store.StampOrderCompleted(ctx, order.ID); err != nil {
			s.logger.Error("Failed to stamp order completion", zap.String("order_id", order.ID), zap.Error(err))
		} else if order.CompletedAt == nil {
			order.CompletedAt = &now
		}
	}

	s.syncQueueFromOrder(ctx, order, status)

	util.OrderStatusUpdatesTotal.WithLabelValues(status).Inc()
	s.events.OrderStatusUpdated(ctx, branchID, order.ID, status)
	return order, nil
}

// CancelOrder marks an order cancelled. Permitted from any status,
// terminal ones included.
func (s *OrderService) CancelOrder(ctx context.Context, branchID, orderID string) (*models.Order, error) {
	return s.UpdateStatus(ctx, branchID, orderID, models.OrderStatusCancelled)
}

// GetOrder retrieves an order with its lines
func (s *OrderService) GetOrder(ctx context.Context, branchID, orderID string) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, branchID, orderID)
	if err != nil {
		return nil, wrapStoreErr(err, "order")
	}
	return order, nil
}

// ListOrders retrieves branch orders newest first
func (s *OrderService) ListOrders(ctx context.Context, branchID, status string) ([]models.Order, error) {
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("order status %q: %w", status, ErrInvalidStatus)
	}

	orders, err := s.store.ListOrders(ctx, branchID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w: %v", ErrStoreUnavailable, err)
	}
	return orders, nil
}

// syncQueueFromOrder mirrors order status changes into the linked
// kitchen queue item. Only specific target values trigger it, and it
// never calls back into the order side, so the two sync directions
// cannot loop.
func (s *OrderService) syncQueueFromOrder(ctx context.Context, order *models.Order, status string) {
	var target string
	switch status {
	case models.OrderStatusPreparing:
		target = models.KitchenStatusPreparing
	case models.OrderStatusReady:
		target = models.KitchenStatusReadyForPickup
	case models.OrderStatusCancelled:
		target = models.KitchenStatusCancelled
	default:
		return
	}

	item, err := s.store.GetQueueItemByOrderID(ctx, order.ID)
	if err != nil {
		s.logger.Error("Queue sync: item lookup failed",
			zap.String("order_id", order.ID), zap.Error(err))
		return
	}

	item.Status = target
	if target == models.KitchenStatusPreparing && item.StartedAt == nil {
		now := time.Now().UTC()
		item.StartedAt = &now
	}

	if err := s.store.SaveQueueItem(ctx, item); err != nil {
		s.logger.Error("Queue sync: save failed",
			zap.String("order_id", order.ID),
			zap.String("queue_item_id", item.ID),
			zap.Error(err))
		return
	}

	s.events.QueueUpdated(ctx, order.BranchID, item)
}

// resolveMenuItems verifies each referenced menu item exists in the
// branch and is available, returning them keyed by id
func (s *OrderService) resolveMenuItems(ctx context.Context, branchID string, lines []OrderLineRequest) (map[string]*models.MenuItem, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
		}
		ids = append(ids, line.MenuItemID)
	}

	items, err := s.menu.MenuItemsByIDs(ctx, branchID, ids)
	if err != nil {
		return nil, fmt.Errorf("menu lookup failed: %w: %v", ErrStoreUnavailable, err)
	}

	byID := make(map[string]*models.MenuItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	for _, line := range lines {
		item, ok := byID[line.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("menu item %s not found in branch: %w", line.MenuItemID, ErrValidation)
		}
		if !item.Available {
			return nil, fmt.Errorf("menu item %s unavailable: %w", line.MenuItemID, ErrValidation)
		}
	}

	return byID, nil
}

// nextOrderNumber allocates a branch-unique order number. When the
// sequencer is unreachable it falls back to a time token, which keeps
// uniqueness per branch without being sequential.
func (s *OrderService) nextOrderNumber(ctx context.Context, branchID string) string {
	if s.seq != nil {
		if n, err := s.seq.Next(ctx, branchID); err == nil {
			return fmt.Sprintf("ORD-%s-%04d", time.Now().UTC().Format("20060102"), n)
		} else {
			s.logger.Warn("Order sequence unavailable, using time token",
				zap.String("branch_id", branchID), zap.Error(err))
		}
	}
	return fmt.Sprintf("ORD-%d", time.Now().UnixNano())
}

// roundTax computes tax in cents, rounded half away from zero
func roundTax(subtotal int64, rate float64) int64 {
	return int64(math.Round(float64(subtotal) * rate))
}
