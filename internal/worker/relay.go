package worker

import (
	"context"
	"encoding/json"
	"log"

	"github.com/LIGAWA25471/Villadelsolrms/internal/broker"
	"github.com/LIGAWA25471/Villadelsolrms/internal/models"
	"github.com/LIGAWA25471/Villadelsolrms/internal/realtime"

	"github.com/segmentio/kafka-go"
)

// EventRelay feeds transition-log events produced by OTHER backend
// instances into the local hub, so terminals see every branch event
// no matter which instance handled the command. Events this instance
// originated are skipped; the hub already broadcast them.
type EventRelay struct {
	consumer *broker.Consumer
	hub      *realtime.Hub
	origin   string
}

// NewEventRelay creates a new relay
func NewEventRelay(consumer *broker.Consumer, hub *realtime.Hub, origin string) *EventRelay {
	return &EventRelay{
		consumer: consumer,
		hub:      hub,
		origin:   origin,
	}
}

// Start starts the relay
func (r *EventRelay) Start(ctx context.Context) error {
	log.Println("Starting event relay...")
	return r.consumer.StartConsuming(ctx, r.handleMessage)
}

// Stop stops the relay
func (r *EventRelay) Stop() error {
	log.Println("Stopping event relay...")
	return r.consumer.Close()
}

func (r *EventRelay) handleMessage(ctx context.Context, msg kafka.Message) error {
	var ev models.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		log.Printf("Relay: failed to unmarshal event: %v", err)
		return nil
	}

	if ev.Origin == r.origin {
		return nil
	}

	r.hub.Dispatch(ev.Event, ev.BranchID, ev.Payload)
	return nil
}
