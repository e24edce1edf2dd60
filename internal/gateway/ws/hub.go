package ws

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Frame is the message format pushed to browser clients.
type Frame struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

func NewFrame(frameType string, data interface{}) *Frame {
	return &Frame{
		Type:      frameType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Hub tracks connected clients and their order-room subscriptions. All maps
// are guarded by mu; pushes go through each client's buffered send channel so
// a slow connection never blocks a broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	h.logger.Info("Client connected", zap.String("client_id", client.id))
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client.id)
	for orderID, members := range h.rooms {
		delete(members, client.id)
		if len(members) == 0 {
			delete(h.rooms, orderID)
		}
	}
	h.mu.Unlock()

	h.logger.Info("Client disconnected", zap.String("client_id", client.id))
}

func (h *Hub) subscribe(client *Client, orderID string) {
	h.mu.Lock()
	members, ok := h.rooms[orderID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[orderID] = members
	}
	members[client.id] = client
	h.mu.Unlock()

	h.logger.Info(
		"Client subscribed to order updates",
		zap.String("client_id", client.id),
		zap.String("order_id", orderID),
	)
}

func (h *Hub) unsubscribe(client *Client, orderID string) {
	h.mu.Lock()
	if members, ok := h.rooms[orderID]; ok {
		delete(members, client.id)
		if len(members) == 0 {
			delete(h.rooms, orderID)
		}
	}
	h.mu.Unlock()

	h.logger.Info(
		"Client unsubscribed from order updates",
		zap.String("client_id", client.id),
		zap.String("order_id", orderID),
	)
}

// PushOrderUpdate delivers an order_update frame to the subscribers of the
// order's room and a general activity frame to every connection.
func (h *Hub) PushOrderUpdate(orderID string, data interface{}) {
	frame := NewFrame("order_update", data)
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Failed to marshal order_update frame", zap.Error(err))
		return
	}

	activity, err := json.Marshal(NewFrame("message", data))
	if err != nil {
		h.logger.Error("Failed to marshal activity frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[orderID]))
	for _, client := range h.rooms[orderID] {
		members = append(members, client)
	}
	all := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		all = append(all, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		client.push(payload)
	}
	for _, client := range all {
		client.push(activity)
	}

	h.logger.Info(
		"Broadcasted order update",
		zap.String("order_id", orderID),
		zap.Int("clients_in_room", len(members)),
	)
}

// PushStockUpdate broadcasts a stock_update frame to every connection.
func (h *Hub) PushStockUpdate(data interface{}) {
	payload, err := json.Marshal(NewFrame("stock_update", data))
	if err != nil {
		h.logger.Error("Failed to marshal stock_update frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		all = append(all, client)
	}
	h.mu.RUnlock()

	for _, client := range all {
		client.push(payload)
	}

	h.logger.Info("Broadcasted stock update", zap.Int("connected_clients", len(all)))
}

// ConnectionStats reports the current connection and room counts.
func (h *Hub) ConnectionStats() (connections int, rooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients), len(h.rooms)
}

func (h *Hub) logDroppedFrame(clientID string) {
	h.logger.Warn("Dropped frame for slow client", zap.String("client_id", clientID))
}
