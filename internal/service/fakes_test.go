package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"
)

// memStore is an in-memory stand-in for the SQL store. Lookups hand
// out copies so mutations only stick through explicit writes, the way
// a real round-trip behaves.
type memStore struct {
	mu           sync.Mutex
	orders       map[string]*models.Order
	queue        map[string]*models.KitchenQueueItem
	queueByOrder map[string]string
	payments     map[string]*models.Payment
	methods      map[string]*models.PaymentMethod

	failCreateOrder bool
	failSaveQueue   bool
}

func newMemStore() *memStore {
	return &memStore{
		orders:       make(map[string]*models.Order),
		queue:        make(map[string]*models.KitchenQueueItem),
		queueByOrder: make(map[string]string),
		payments:     make(map[string]*models.Payment),
		methods:      make(map[string]*models.PaymentMethod),
	}
}

var errStoreDown = errors.New("store down")

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Lines = append([]models.OrderLine(nil), o.Lines...)
	return &c
}

func copyQueueItem(q *models.KitchenQueueItem) *models.KitchenQueueItem {
	c := *q
	c.Order = nil
	return &c
}

func (m *memStore) CreateOrderTx(ctx context.Context, order *models.Order, item *models.KitchenQueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateOrder {
		return errStoreDown
	}
	m.orders[order.ID] = copyOrder(order)
	m.queue[item.ID] = copyQueueItem(item)
	m.queueByOrder[order.ID] = item.ID
	return nil
}

func (m *memStore) GetOrderByID(ctx context.Context, branchID, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.BranchID != branchID {
		return nil, sql.ErrNoRows
	}
	return copyOrder(o), nil
}

func (m *memStore) ListOrders(ctx context.Context, branchID, status string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.BranchID != branchID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[orderID]; ok {
		o.Status = status
		o.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *memStore) StampOrderCompleted(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[orderID]; ok && o.CompletedAt == nil {
		now := time.Now().UTC()
		o.CompletedAt = &now
	}
	return nil
}

func (m *memStore) StampOrderPaid(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[orderID]; ok {
		now := time.Now().UTC()
		o.PaidAt = &now
	}
	return nil
}

func (m *memStore) GetQueueItemByOrderID(ctx context.Context, orderID string) (*models.KitchenQueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.queueByOrder[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyQueueItem(m.queue[id]), nil
}

func (m *memStore) GetQueueItemByID(ctx context.Context, branchID, id string) (*models.KitchenQueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queue[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	o, ok := m.orders[q.OrderID]
	if !ok || o.BranchID != branchID {
		return nil, sql.ErrNoRows
	}
	return copyQueueItem(q), nil
}

func (m *memStore) ListQueueItems(ctx context.Context, branchID, status string) ([]models.KitchenQueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.KitchenQueueItem
	for _, q := range m.queue {
		o, ok := m.orders[q.OrderID]
		if !ok || o.BranchID != branchID {
			continue
		}
		if status != "" && q.Status != status {
			continue
		}
		out = append(out, *copyQueueItem(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) SaveQueueItem(ctx context.Context, item *models.KitchenQueueItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveQueue {
		return errStoreDown
	}
	q, ok := m.queue[item.ID]
	if !ok {
		return sql.ErrNoRows
	}
	q.Status = item.Status
	q.Station = item.Station
	q.Priority = item.Priority
	q.StartedAt = item.StartedAt
	q.CompletedAt = item.CompletedAt
	return nil
}

func (m *memStore) SetQueuePriority(ctx context.Context, id string, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queue[id]
	if !ok {
		return sql.ErrNoRows
	}
	q.Priority = priority
	return nil
}

func (m *memStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *p
	m.payments[p.ID] = &c
	return nil
}

func (m *memStore) GetPaymentByID(ctx context.Context, branchID, id string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok || p.BranchID != branchID {
		return nil, sql.ErrNoRows
	}
	c := *p
	return &c, nil
}

func (m *memStore) ListPayments(ctx context.Context, branchID, orderID string) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Payment
	for _, p := range m.payments {
		if p.BranchID != branchID {
			continue
		}
		if orderID != "" && p.OrderID != orderID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdatePayment(ctx context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.payments[p.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Status = p.Status
	stored.TransactionID = p.TransactionID
	stored.Notes = p.Notes
	return nil
}

func (m *memStore) SumCompletedPayments(ctx context.Context, orderID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.payments {
		if p.OrderID == orderID && p.Status == models.PaymentStatusCompleted {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (m *memStore) GetPaymentMethodByID(ctx context.Context, branchID, id string) (*models.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pm, ok := m.methods[id]
	if !ok || pm.BranchID != branchID {
		return nil, sql.ErrNoRows
	}
	return pm, nil
}

func (m *memStore) GetPaymentMethodByName(ctx context.Context, branchID, name string) (*models.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pm := range m.methods {
		if pm.BranchID == branchID && pm.Name == name {
			return pm, nil
		}
	}
	return nil, sql.ErrNoRows
}

// fakeMenu serves menu items keyed by branch
type fakeMenu struct {
	items map[string][]models.MenuItem
}

func (f *fakeMenu) MenuItemsByIDs(ctx context.Context, branchID string, ids []string) ([]models.MenuItem, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.MenuItem
	for _, item := range f.items[branchID] {
		if wanted[item.ID] {
			out = append(out, item)
		}
	}
	return out, nil
}

// fakeSeq hands out sequential order numbers, or fails on demand
type fakeSeq struct {
	n    int64
	fail bool
}

func (f *fakeSeq) Next(ctx context.Context, branchID string) (int64, error) {
	if f.fail {
		return 0, errStoreDown
	}
	f.n++
	return f.n, nil
}

// sinkRecorder captures emitted events for assertions
type sinkRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *sinkRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *sinkRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *sinkRecorder) OrderCreated(ctx context.Context, order *models.Order) {
	r.record(models.EventOrderCreated)
}

func (r *sinkRecorder) OrderStatusUpdated(ctx context.Context, branchID, orderID, status string) {
	r.record(models.EventOrderStatusUpdated + ":" + status)
}

func (r *sinkRecorder) QueueUpdated(ctx context.Context, branchID string, item *models.KitchenQueueItem) {
	r.record(models.EventQueueUpdated)
}

func (r *sinkRecorder) PaymentUpdated(ctx context.Context, branchID, orderID, paymentID, status string) {
	r.record(models.EventPaymentUpdated + ":" + status)
}
