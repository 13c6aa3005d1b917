package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"
	"github.com/LIGAWA25471/Villadelsolrms/internal/util"

	"go.uber.org/zap"
)

// KitchenStore is the persistence surface the kitchen engine needs
type KitchenStore interface {
	GetQueueItemByID(ctx context.Context, branchID, id string) (*models.KitchenQueueItem, error)
	ListQueueItems(ctx context.Context, branchID, status string) ([]models.KitchenQueueItem, error)
	SaveQueueItem(ctx context.Context, item *models.KitchenQueueItem) error
	SetQueuePriority(ctx context.Context, id string, priority int) error
	GetOrderByID(ctx context.Context, branchID, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
}

// KitchenService owns the kitchen queue
type KitchenService struct {
	store  KitchenStore
	events EventSink
	logger *zap.Logger
}

// NewKitchenService creates a new kitchen service
func NewKitchenService(store KitchenStore, events EventSink) *KitchenService {
	return &KitchenService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// GetQueue returns the branch queue with orders and lines attached,
// highest priority first, oldest first among equals.
func (s *KitchenService) GetQueue(ctx context.Context, branchID, status string) ([]models.KitchenQueueItem, error) {
	ctx, span := util.StartSpan(ctx, "KitchenService.GetQueue")
	defer span.End()

	if status != "" && !models.ValidKitchenStatus(status) {
		return nil, fmt.Errorf("kitchen status %q: %w", status, ErrInvalidStatus)
	}

	items, err := s.store.ListQueueItems(ctx, branchID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w: %v", ErrStoreUnavailable, err)
	}

	for i := range items {
		order, err := s.store.GetOrderByID(ctx, branchID, items[i].OrderID)
		if err != nil {
			s.logger.Error("Queue item order lookup failed",
				zap.String("queue_item_id", items[i].ID),
				zap.String("order_id", items[i].OrderID),
				zap.Error(err))
			continue
		}
		items[i].Order = order
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority > items[j].Priority
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	return items, nil
}

// GetQueueItem retrieves a single queue item with its order attached
func (s *KitchenService) GetQueueItem(ctx context.Context, branchID, id string) (*models.KitchenQueueItem, error) {
	item, err := s.store.GetQueueItemByID(ctx, branchID, id)
	if err != nil {
		return nil, wrapStoreErr(err, "kitchen queue item")
	}

	if order, err := s.store.GetOrderByID(ctx, branchID, item.OrderID); err == nil {
		item.Order = order
	}
	return item, nil
}

// UpdateStatus moves a queue item to the given status. PREPARING
// stamps StartedAt the first time only; COMPLETED stamps CompletedAt
// the first time only. A supplied station overwrites the current one
// regardless of status. READY_FOR_PICKUP propagates READY onto the
// linked order; that propagation never re-enters the kitchen side.
func (s *KitchenService) UpdateStatus(ctx context.Context, branchID, id, status string, station *string) (*models.KitchenQueueItem, error) {
	ctx, span := util.StartSpan(ctx, "KitchenService.UpdateStatus")
	defer span.End()

	if !models.ValidKitchenStatus(status) {
		return nil, fmt.Errorf("kitchen status %q: %w", status, ErrInvalidStatus)
	}

	item, err := s.store.GetQueueItemByID(ctx, branchID, id)
	if err != nil {
		return nil, wrapStoreErr(err, "kitchen queue item")
	}

	now := time.Now().UTC()
	item.Status = status

	if status == models.KitchenStatusPreparing && item.StartedAt == nil {
		item.StartedAt = &now
	}
	if status == models.KitchenStatusCompleted && item.CompletedAt == nil {
		item.CompletedAt = &now
	}
	if station != nil {
		item.Station = *station
	}

	if err := s.store.SaveQueueItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update queue item: %w: %v", ErrStoreUnavailable, err)
	}

	util.QueueStatusUpdatesTotal.WithLabelValues(status).Inc()

	if status == models.KitchenStatusReadyForPickup {
		if err := s.store.UpdateOrderStatus(ctx, item.OrderID, models.OrderStatusReady); err != nil {
			s.logger.Error("Order sync: status update failed",
				zap.String("order_id", item.OrderID), zap.Error(err))
		} else {
			s.events.OrderStatusUpdated(ctx, branchID, item.OrderID, models.OrderStatusReady)
		}
	}

	s.events.QueueUpdated(ctx, branchID, item)
	return item, nil
}

// SetPriority overwrites a queue item's priority. Any integer is
// accepted; callers establish relative ordering only.
func (s *KitchenService) SetPriority(ctx context.Context, branchID, id string, priority int) (*models.KitchenQueueItem, error) {
	item, err := s.store.GetQueueItemByID(ctx, branchID, id)
	if err != nil {
		return nil, wrapStoreErr(err, "kitchen queue item")
	}

	if err := s.store.SetQueuePriority(ctx, item.ID, priority); err != nil {
		return nil, fmt.Errorf("failed to set priority: %w: %v", ErrStoreUnavailable, err)
	}

	item.Priority = priority
	s.events.QueueUpdated(ctx, branchID, item)
	return item, nil
}
