package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func addClient(t *testing.T, hub *Hub) *Client {
	t.Helper()

	client := newClient(hub, nil)
	hub.register(client)
	t.Cleanup(func() { hub.unregister(client) })

	return client
}

func receivedFrames(t *testing.T, client *Client) []Frame {
	t.Helper()

	var frames []Frame
	for {
		select {
		case payload := <-client.send:
			var frame Frame
			require.NoError(t, json.Unmarshal(payload, &frame))
			frames = append(frames, frame)
		default:
			return frames
		}
	}
}

func frameTypes(frames []Frame) []string {
	types := make([]string, 0, len(frames))
	for _, frame := range frames {
		types = append(types, frame.Type)
	}

	return types
}

func TestPushOrderUpdate_SubscriberGetsOrderFrame(t *testing.T) {
	hub := NewHub(zap.NewNop())

	subscriber := addClient(t, hub)
	bystander := addClient(t, hub)

	hub.subscribe(subscriber, "order_1")

	hub.PushOrderUpdate("order_1", map[string]string{"orderId": "order_1", "status": "CONFIRMED"})

	require.ElementsMatch(t, []string{"order_update", "message"}, frameTypes(receivedFrames(t, subscriber)))
	require.Equal(t, []string{"message"}, frameTypes(receivedFrames(t, bystander)))
}

func TestPushOrderUpdate_OtherRoomUnaffected(t *testing.T) {
	hub := NewHub(zap.NewNop())

	subscriber := addClient(t, hub)
	hub.subscribe(subscriber, "order_2")

	hub.PushOrderUpdate("order_1", map[string]string{"orderId": "order_1"})

	require.Equal(t, []string{"message"}, frameTypes(receivedFrames(t, subscriber)))
}

func TestPushStockUpdate_BroadcastsToEveryone(t *testing.T) {
	hub := NewHub(zap.NewNop())

	first := addClient(t, hub)
	second := addClient(t, hub)

	hub.PushStockUpdate(map[string]any{"productId": "p1", "availableStock": 5})

	require.Equal(t, []string{"stock_update"}, frameTypes(receivedFrames(t, first)))
	require.Equal(t, []string{"stock_update"}, frameTypes(receivedFrames(t, second)))
}

func TestUnsubscribe_StopsOrderFrames(t *testing.T) {
	hub := NewHub(zap.NewNop())

	client := addClient(t, hub)
	hub.subscribe(client, "order_1")
	hub.unsubscribe(client, "order_1")

	hub.PushOrderUpdate("order_1", map[string]string{"orderId": "order_1"})

	require.Equal(t, []string{"message"}, frameTypes(receivedFrames(t, client)))
}

func TestUnregister_PurgesAllRooms(t *testing.T) {
	hub := NewHub(zap.NewNop())

	client := newClient(hub, nil)
	hub.register(client)
	hub.subscribe(client, "order_1")
	hub.subscribe(client, "order_2")

	hub.unregister(client)

	connections, rooms := hub.ConnectionStats()
	require.Equal(t, 0, connections)
	require.Equal(t, 0, rooms)

	hub.PushOrderUpdate("order_1", map[string]string{"orderId": "order_1"})
	require.Empty(t, receivedFrames(t, client))
}

func TestPush_SlowClientDoesNotBlockBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())

	slow := addClient(t, hub)
	healthy := addClient(t, hub)

	// Fill the slow client's buffer so further frames get dropped.
	for i := 0; i < sendBufferSize; i++ {
		slow.push([]byte(`{}`))
	}

	hub.PushStockUpdate(map[string]any{"productId": "p1", "availableStock": 5})

	require.Equal(t, []string{"stock_update"}, frameTypes(receivedFrames(t, healthy)))
	require.Len(t, receivedFrames(t, slow), sendBufferSize)
}
