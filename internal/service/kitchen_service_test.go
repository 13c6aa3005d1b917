package service

import (
	"context"
	"testing"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKitchenFixture(t *testing.T) (*KitchenService, *OrderService, *memStore, *sinkRecorder) {
	t.Helper()
	orderSvc, store, sink := newOrderFixture(t)
	kitchenSvc := NewKitchenService(store, sink)
	return kitchenSvc, orderSvc, store, sink
}

func queueItemFor(t *testing.T, store *memStore, orderID string) *models.KitchenQueueItem {
	t.Helper()
	item, err := store.GetQueueItemByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	return item
}

func TestGetQueuePriorityThenAge(t *testing.T) {
	kitchen, orders, store, _ := newKitchenFixture(t)

	o1 := mustCreateOrder(t, orders)
	o2 := mustCreateOrder(t, orders)
	o3 := mustCreateOrder(t, orders)

	i1 := queueItemFor(t, store, o1.ID)
	i2 := queueItemFor(t, store, o2.ID)
	i3 := queueItemFor(t, store, o3.ID)

	// equal priorities tie-break on creation time
	store.mu.Lock()
	store.queue[i1.ID].Priority = 5
	store.queue[i1.ID].CreatedAt = time.Now().UTC().Add(-2 * time.Minute)
	store.queue[i2.ID].Priority = 5
	store.queue[i2.ID].CreatedAt = time.Now().UTC().Add(-time.Minute)
	store.queue[i3.ID].Priority = 9
	store.mu.Unlock()

	queue, err := kitchen.GetQueue(context.Background(), testBranch, "")
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, i3.ID, queue[0].ID)
	assert.Equal(t, i1.ID, queue[1].ID)
	assert.Equal(t, i2.ID, queue[2].ID)

	// orders are joined in
	require.NotNil(t, queue[0].Order)
	assert.Equal(t, o3.ID, queue[0].Order.ID)
	assert.Len(t, queue[0].Order.Lines, 2)
}

func TestGetQueueStatusFilter(t *testing.T) {
	kitchen, orders, store, _ := newKitchenFixture(t)

	o1 := mustCreateOrder(t, orders)
	mustCreateOrder(t, orders)
	i1 := queueItemFor(t, store, o1.ID)

	_, err := kitchen.UpdateStatus(context.Background(), testBranch, i1.ID, models.KitchenStatusAccepted, nil)
	require.NoError(t, err)

	accepted, err := kitchen.GetQueue(context.Background(), testBranch, models.KitchenStatusAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, i1.ID, accepted[0].ID)
}

func TestQueuePreparingStampsStartedOnce(t *testing.T) {
	kitchen, orders, store, _ := newKitchenFixture(t)
	o := mustCreateOrder(t, orders)
	item := queueItemFor(t, store, o.ID)

	updated, err := kitchen.UpdateStatus(context.Background(), testBranch, item.ID, models.KitchenStatusPreparing, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.StartedAt)
	first := *updated.StartedAt

	time.Sleep(5 * time.Millisecond)
	updated, err = kitchen.UpdateStatus(context.Background(), testBranch, item.ID, models.KitchenStatusPreparing, nil)
	require.NoError(t, err)
	assert.True(t, updated.StartedAt.Equal(first), "startedAt must be stamped exactly once")
}

func TestQueueCompletedStampsCompletedOnce(t *testing.T) {
	kitchen, orders, store, _ := newKitchenFixture(t)
	o := mustCreateOrder(t, orders)
	item := queueItemFor(t, store, o.ID)

	updated, err := kitchen.UpdateStatus(context.Background(), testBranch, item.ID, models.KitchenStatusCompleted, nil)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	first := *updated.CompletedAt

	time.Sleep(5 * time.Millisecond)
	updated, err = kitchen.UpdateStatus(context.Background(), testBranch, item.ID, models.KitchenStatusCompleted, nil)
	require.NoError(t, err)
	assert.True(t, updated.CompletedAt.Equal(first))
}

func TestReadyForPickupPropagatesOrderStatus(t *testing.T) {
	kitchen, orders, store, sink := newKitchenFixture(t)
	o := mustCreateOrder(t, orders)
	item := queueItemFor(t, store, o.ID)

	_, err := kitchen.UpdateStatus(context.Background(), testBranch, item.ID, models.KitchenStatusReadyForPickup, nil)
	require.NoError(t, err)

	order, err := store.GetOrderByID(context.Background(), testBranch, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReady, order.Status)

	assert.Contains(t, sink.names(), models.EventOrderStatusUpdated+":"+models.OrderStatusReady)
	assert.Contains(t, sink.names(), models.EventQueueUpdated)
}

func TestStationOverwrite(t *testing.T) {
	kitchen, orders, store, _ := newKitchenFixture(t)
	o := mustCreateOrder(t, orders)
	item := queueItemFor(t, store, o.ID)

	station := "Grill"
	updated, err := kitchen.UpdateStatus(context.Background(), testBranch, item.ID, models.KitchenStatusAccepted, &station)
	require.NoError(t, err)
	assert.Equal(t, "Grill", updated.Station)

	// omitting station keeps the current one
	updated, err = kitchen.UpdateStatus(context.Background(), testBranch, item.ID, models.KitchenStatusPreparing, nil)
	require.NoError(t, err)
	assert.Equal(t, "Grill", updated.Station)
}

func TestSetPriorityAnyInteger(t *testing.T) {
	kitchen, orders, store, _ := newKitchenFixture(t)
	o := mustCreateOrder(t, orders)
	item := queueItemFor(t, store, o.ID)

	updated, err := kitchen.SetPriority(context.Background(), testBranch, item.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, -3, updated.Priority)

	updated, err = kitchen.SetPriority(context.Background(), testBranch, item.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Priority)
}

func TestQueueUpdateUnknownStatus(t *testing.T) {
	kitchen, orders, store, _ := newKitchenFixture(t)
	o := mustCreateOrder(t, orders)
	item := queueItemFor(t, store, o.ID)

	_, err := kitchen.UpdateStatus(context.Background(), testBranch, item.ID, "BURNT", nil)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestQueueBranchMismatch(t *testing.T) {
	kitchen, orders, store, _ := newKitchenFixture(t)
	o := mustCreateOrder(t, orders)
	item := queueItemFor(t, store, o.ID)

	_, err := kitchen.UpdateStatus(context.Background(), "branch-other", item.ID, models.KitchenStatusAccepted, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = kitchen.SetPriority(context.Background(), "branch-other", item.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
