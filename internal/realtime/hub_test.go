package realtime

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/LIGAWA25471/Villadelsolrms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSession builds a session with a drainable buffer and no
// underlying connection; the pumps are never started.
func testSession(buffer int) *Session {
	return &Session{id: "test", send: make(chan []byte, buffer)}
}

func receivedFrames(t *testing.T, s *Session) []Frame {
	t.Helper()
	var frames []Frame
	for {
		select {
		case data := <-s.send:
			var f Frame
			require.NoError(t, json.Unmarshal(data, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func frameEvents(frames []Frame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Event)
	}
	return out
}

func TestOrderCreatedReachesBranchAndKitchen(t *testing.T) {
	hub := NewHub()
	pos := testSession(8)
	kds := testSession(8)
	hub.JoinBranch(pos, "b1", "")
	hub.JoinKitchen(kds, "b1")

	hub.BroadcastOrderCreated("b1", &models.Order{ID: "o1", BranchID: "b1"})

	posFrames := receivedFrames(t, pos)
	kdsFrames := receivedFrames(t, kds)
	require.Len(t, posFrames, 1)
	require.Len(t, kdsFrames, 1)
	assert.Equal(t, models.EventOrderCreated, posFrames[0].Event)
	assert.Equal(t, models.EventOrderCreated, kdsFrames[0].Event)
}

func TestEventsStayInsideTheirBranch(t *testing.T) {
	hub := NewHub()
	b1 := testSession(8)
	b2 := testSession(8)
	hub.JoinBranch(b1, "b1", "")
	hub.JoinBranch(b2, "b2", "")

	hub.BroadcastOrderStatus("b1", "o1", models.OrderStatusPreparing)

	assert.Len(t, receivedFrames(t, b1), 1)
	assert.Empty(t, receivedFrames(t, b2))
}

func TestQueueUpdateMirroredToBranch(t *testing.T) {
	hub := NewHub()
	pos := testSession(8)
	kds := testSession(8)
	hub.JoinBranch(pos, "b1", "")
	hub.JoinKitchen(kds, "b1")

	hub.BroadcastQueueUpdate("b1", &models.KitchenQueueItem{ID: "q1", OrderID: "o1"})

	kdsFrames := receivedFrames(t, kds)
	require.Len(t, kdsFrames, 1)
	assert.Equal(t, models.EventQueueUpdated, kdsFrames[0].Event)

	// the front-of-house room sees the same data under the mirror name
	posFrames := receivedFrames(t, pos)
	require.Len(t, posFrames, 1)
	assert.Equal(t, models.EventQueueStatus, posFrames[0].Event)
}

func TestPaymentUpdateBranchOnly(t *testing.T) {
	hub := NewHub()
	pos := testSession(8)
	kds := testSession(8)
	hub.JoinBranch(pos, "b1", "")
	hub.JoinKitchen(kds, "b1")

	hub.BroadcastPaymentUpdate("b1", "o1", "p1", models.PaymentStatusCompleted)

	posFrames := receivedFrames(t, pos)
	require.Len(t, posFrames, 1)
	assert.Equal(t, models.EventPaymentUpdated, posFrames[0].Event)
	assert.Empty(t, receivedFrames(t, kds))
}

func TestSessionInBothRoomsGetsBothDeliveries(t *testing.T) {
	hub := NewHub()
	s := testSession(8)
	hub.JoinBranch(s, "b1", "")
	hub.JoinKitchen(s, "b1")

	hub.BroadcastOrderStatus("b1", "o1", models.OrderStatusReady)

	events := frameEvents(receivedFrames(t, s))
	assert.Equal(t, []string{models.EventOrderStatusUpdated, models.EventOrderStatusUpdated}, events)
}

func TestSlowSessionDropsFramesWithoutBlocking(t *testing.T) {
	hub := NewHub()
	slow := testSession(1)
	hub.JoinBranch(slow, "b1", "")

	hub.BroadcastOrderStatus("b1", "o1", models.OrderStatusPreparing)
	hub.BroadcastOrderStatus("b1", "o1", models.OrderStatusReady)
	hub.BroadcastOrderStatus("b1", "o1", models.OrderStatusServed)

	// only the first frame fits; the rest were dropped, not queued
	frames := receivedFrames(t, slow)
	require.Len(t, frames, 1)
}

func TestUnregisterCleansRoomsAndUsers(t *testing.T) {
	hub := NewHub()
	s := testSession(8)
	hub.JoinBranch(s, "b1", "user-1")
	hub.JoinKitchen(s, "b1")
	require.Equal(t, 1, hub.UserSessions("user-1"))

	hub.unregister(s)

	assert.Equal(t, 0, hub.UserSessions("user-1"))
	hub.BroadcastOrderCreated("b1", &models.Order{ID: "o1"})

	// channel is closed and empty; a closed receive yields no frame
	_, ok := <-s.send
	assert.False(t, ok)
}

func TestUserConnectionRegistryCountsPerSession(t *testing.T) {
	hub := NewHub()
	s1 := testSession(8)
	s2 := testSession(8)
	hub.JoinBranch(s1, "b1", "user-1")
	hub.JoinBranch(s2, "b1", "user-1")
	assert.Equal(t, 2, hub.UserSessions("user-1"))

	hub.unregister(s1)
	assert.Equal(t, 1, hub.UserSessions("user-1"))
}

func TestBroadcastDuringDisconnectChurn(t *testing.T) {
	hub := NewHub()

	sessions := make([]*Session, 200)
	for i := range sessions {
		sessions[i] = testSession(1)
		hub.JoinBranch(sessions[i], "b1", "")
	}

	var wg sync.WaitGroup
	wg.Add(2)

	// broadcasters race against sessions tearing down; a departed
	// session must never be sent to after its channel closes
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			hub.BroadcastOrderStatus("b1", "o1", models.OrderStatusPreparing)
		}
	}()
	go func() {
		defer wg.Done()
		for _, s := range sessions {
			hub.unregister(s)
		}
	}()

	wg.Wait()
	hub.BroadcastOrderStatus("b1", "o1", models.OrderStatusReady)
}

func TestUnknownEventKindIgnored(t *testing.T) {
	hub := NewHub()
	s := testSession(8)
	hub.JoinBranch(s, "b1", "")

	hub.Dispatch("table-moved", "b1", nil)

	assert.Empty(t, receivedFrames(t, s))
}
