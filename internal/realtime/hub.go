package realtime

import (
	"encoding/json"
	"sync"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"
	"github.com/LIGAWA25471/Villadelsolrms/internal/util"

	"go.uber.org/zap"
)

// Hub fans state-change events out to subscribed terminal sessions.
// Two room families exist per branch: "branch-<id>" for front-of-house
// terminals and "kitchen-<id>" for KDS terminals. Delivery is
// at-most-effort: no ordering across rooms, no replay, and a slow
// session loses frames rather than delaying the sender.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Session]struct{}
	users map[string]map[*Session]struct{}

	logger *zap.Logger
}

// Frame is the outbound wire envelope pushed to terminals
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Session]struct{}),
		users:  make(map[string]map[*Session]struct{}),
		logger: util.GetLogger(),
	}
}

func branchRoom(branchID string) string { return "branch-" + branchID }

func kitchenRoom(branchID string) string { return "kitchen-" + branchID }

// register adds a connected session
func (h *Hub) register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	util.WSConnectionsActive.Inc()
	h.logger.Info("Terminal connected", zap.String("session_id", s.id))
}

// unregister tears down a session's room and user membership
func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, members := range h.rooms {
		if _, ok := members[s]; ok {
			delete(members, s)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	if s.userID != "" {
		if conns, ok := h.users[s.userID]; ok {
			delete(conns, s)
			if len(conns) == 0 {
				delete(h.users, s.userID)
			}
		}
	}

	close(s.send)
	util.WSConnectionsActive.Dec()
	h.logger.Info("Terminal disconnected", zap.String("session_id", s.id))
}

// JoinBranch subscribes a session to its branch room and records the
// connection against the announcing user
func (h *Hub) JoinBranch(s *Session, branchID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.join(s, branchRoom(branchID))
	if userID != "" {
		s.userID = userID
		if h.users[userID] == nil {
			h.users[userID] = make(map[*Session]struct{})
		}
		h.users[userID][s] = struct{}{}
	}
	h.logger.Info("Session subscribed to branch",
		zap.String("session_id", s.id), zap.String("branch_id", branchID))
}

// JoinKitchen subscribes a KDS session to its branch's kitchen room
func (h *Hub) JoinKitchen(s *Session, branchID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.join(s, kitchenRoom(branchID))
	h.logger.Info("Session subscribed to kitchen",
		zap.String("session_id", s.id), zap.String("branch_id", branchID))
}

func (h *Hub) join(s *Session, room string) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Session]struct{})
	}
	h.rooms[room][s] = struct{}{}
}

// UserSessions returns how many live sessions a user currently has
func (h *Hub) UserSessions(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users[userID])
}

// Dispatch routes an event to the rooms its kind targets. Used both
// for locally originated emissions and for events relayed from other
// backend instances.
func (h *Hub) Dispatch(event, branchID string, payload interface{}) {
	switch event {
	case models.EventOrderCreated, models.EventOrderStatusUpdated:
		h.emit(branchRoom(branchID), event, payload)
		h.emit(kitchenRoom(branchID), event, payload)
	case models.EventQueueUpdated:
		h.emit(kitchenRoom(branchID), models.EventQueueUpdated, payload)
		h.emit(branchRoom(branchID), models.EventQueueStatus, payload)
	case models.EventPaymentUpdated:
		h.emit(branchRoom(branchID), event, payload)
	default:
		h.logger.Warn("Unknown event kind dropped", zap.String("event", event))
	}
}

// BroadcastOrderCreated pushes a full order to POS and KDS terminals
func (h *Hub) BroadcastOrderCreated(branchID string, order *models.Order) {
	h.Dispatch(models.EventOrderCreated, branchID, order)
}

// BroadcastOrderStatus pushes an order status change to POS and KDS terminals
func (h *Hub) BroadcastOrderStatus(branchID, orderID, status string) {
	h.Dispatch(models.EventOrderStatusUpdated, branchID,
		models.OrderStatusPayload{OrderID: orderID, Status: status})
}

// BroadcastQueueUpdate pushes a queue item to KDS terminals and its
// mirrored form to the branch room
func (h *Hub) BroadcastQueueUpdate(branchID string, item *models.KitchenQueueItem) {
	h.Dispatch(models.EventQueueUpdated, branchID, item)
}

// BroadcastPaymentUpdate pushes a payment state change to the branch room
func (h *Hub) BroadcastPaymentUpdate(branchID, orderID, paymentID, status string) {
	h.Dispatch(models.EventPaymentUpdated, branchID,
		models.PaymentUpdatePayload{OrderID: orderID, PaymentID: paymentID, PaymentStatus: status})
}

// emit serializes one frame and offers it to every member of a room.
// Full session buffers drop the frame. The sends happen under the hub
// lock: unregister closes session channels under the same lock, so a
// session leaving mid-broadcast can never be sent to after close.
func (h *Hub) emit(room, event string, payload interface{}) {
	data, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("Failed to marshal frame", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.Lock()
	for s := range h.rooms[room] {
		select {
		case s.send <- data:
		default:
			util.EventsDroppedTotal.Inc()
		}
	}
	h.mu.Unlock()

	util.EventsBroadcastTotal.WithLabelValues(event).Inc()
}
