package broker

import (
	"context"
	"time"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"
	"github.com/LIGAWA25471/Villadelsolrms/internal/realtime"
	"github.com/LIGAWA25471/Villadelsolrms/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher delivers every state-change event twice: synchronously to
// the local realtime hub, and in the background to the Kafka
// transition log so other backend instances can relay it. Log
// failures are logged and never reach the caller.
type Publisher struct {
	hub      *realtime.Hub
	producer *Producer
	origin   string
	logger   *zap.Logger
}

// NewPublisher creates a new event publisher. producer may be nil to
// run without the transition log. origin identifies this backend
// instance in logged events.
func NewPublisher(hub *realtime.Hub, producer *Producer, origin string) *Publisher {
	return &Publisher{
		hub:      hub,
		producer: producer,
		origin:   origin,
		logger:   util.GetLogger(),
	}
}

// Origin returns this publisher's instance id
func (p *Publisher) Origin() string { return p.origin }

// OrderCreated broadcasts a full new order
func (p *Publisher) OrderCreated(ctx context.Context, order *models.Order) {
	p.hub.BroadcastOrderCreated(order.BranchID, order)
	p.appendLog(models.EventOrderCreated, order.BranchID, "order-"+order.ID, order)
}

// OrderStatusUpdated broadcasts an order status transition
func (p *Publisher) OrderStatusUpdated(ctx context.Context, branchID, orderID, status string) {
	p.hub.BroadcastOrderStatus(branchID, orderID, status)
	p.appendLog(models.EventOrderStatusUpdated, branchID, "order-"+orderID,
		models.OrderStatusPayload{OrderID: orderID, Status: status})
}

// QueueUpdated broadcasts a kitchen queue item change
func (p *Publisher) QueueUpdated(ctx context.Context, branchID string, item *models.KitchenQueueItem) {
	p.hub.BroadcastQueueUpdate(branchID, item)
	p.appendLog(models.EventQueueUpdated, branchID, "order-"+item.OrderID, item)
}

// PaymentUpdated broadcasts a payment state change
func (p *Publisher) PaymentUpdated(ctx context.Context, branchID, orderID, paymentID, status string) {
	p.hub.BroadcastPaymentUpdate(branchID, orderID, paymentID, status)
	p.appendLog(models.EventPaymentUpdated, branchID, "order-"+orderID,
		models.PaymentUpdatePayload{OrderID: orderID, PaymentID: paymentID, PaymentStatus: status})
}

// appendLog writes the event to the transition log without blocking
// the command path
func (p *Publisher) appendLog(event, branchID, key string, payload interface{}) {
	if p.producer == nil {
		return
	}

	ev := models.Event{
		EventID:   uuid.New().String(),
		Event:     event,
		BranchID:  branchID,
		Origin:    p.origin,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.producer.PublishEvent(ctx, key, ev); err != nil {
			p.logger.Error("Failed to append event to transition log",
				zap.String("event", event),
				zap.String("branch_id", branchID),
				zap.Error(err))
		}
	}()
}
