package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisChannel = "raven:worker-events"

// Hub manages the application windows controlled by the worker.
// Events are fanned out through Redis Pub/Sub when a client is configured,
// so windows connected to other instances receive them too.
type Hub struct {
	// Map of userID -> set of window connections
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// closed when Run returns; pumps stop waiting on the loop
	done chan struct{}

	// Redis client for Pub/Sub; nil means local delivery only
	rdb *redis.Client

	// instance id, used to skip our own Redis echoes
	origin string

	logger *zap.Logger
}

// NewHub creates a new WebSocket Hub. rdb may be nil.
func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     logger.Named("ws_hub"),
	}
}

// Run starts the Hub's main event loop
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.subscribeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register queues a client for registration with the hub. Once the hub has
// stopped the client's send channel is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client. After the hub has stopped it removes the
// client directly instead of waiting for the event loop.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		h.removeClient(client)
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
	h.logger.Info("Window connected",
		zap.String("user_id", client.UserID),
		zap.Int("connections", len(h.clients[client.UserID])))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.UserID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
		}
		if len(clients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	h.logger.Info("Window disconnected", zap.String("user_id", client.UserID))
}

// Broadcast sends an event to every window, on every instance
func (h *Hub) Broadcast(event *model.WSEvent) {
	h.broadcastToLocal(event)
	h.publishToRedis(event)
}

// OpenWindow asks the application windows to navigate to url
func (h *Hub) OpenWindow(_ context.Context, url string) error {
	h.Broadcast(&model.WSEvent{
		Type:    model.WSEventOpenWindow,
		Payload: model.OpenWindowEvent{URL: url},
	})
	return nil
}

// Claim tells the connected windows the worker now controls them
func (h *Hub) Claim(_ context.Context) error {
	h.Broadcast(&model.WSEvent{Type: model.WSEventClientsClaimed})
	return nil
}

// broadcastToLocal sends an event to all windows connected to this instance
func (h *Hub) broadcastToLocal(event *model.WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Error marshaling broadcast event", zap.Error(err))
		return
	}
	h.broadcastRaw(data)
}

func (h *Hub) broadcastRaw(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.clients {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// Window's send buffer is full, drop it
				close(client.send)
				delete(clients, client)
			}
		}
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
}

// ConnectionCount returns the number of windows connected to this instance
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// ========== Redis Pub/Sub for Horizontal Scaling ==========

// envelope wraps a serialized event with the publishing instance
type envelope struct {
	Origin string          `json:"origin"`
	Event  json.RawMessage `json:"event"`
}

func (h *Hub) publishToRedis(event *model.WSEvent) {
	if h.rdb == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Error marshaling for Redis", zap.Error(err))
		return
	}
	payload, err := json.Marshal(envelope{Origin: h.origin, Event: data})
	if err != nil {
		h.logger.Error("Error marshaling envelope", zap.Error(err))
		return
	}
	if err := h.rdb.Publish(context.Background(), redisChannel, payload).Err(); err != nil {
		h.logger.Warn("Error publishing to Redis", zap.Error(err))
	}
}

// subscribeRedis delivers events published by other instances to local windows
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	h.logger.Info("Redis Pub/Sub subscriber started", zap.String("channel", redisChannel))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Error unmarshaling Redis message", zap.Error(err))
				continue
			}
			if env.Origin == h.origin {
				continue
			}
			h.broadcastRaw(env.Event)
		}
	}
}
