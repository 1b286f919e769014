package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"ai-research-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisRunPattern = "run_events:*"

// Hub fans run events out to websocket subscribers. Clients subscribe to a
// single run; redis pattern subscription carries events published by other
// instances.
type Hub struct {
	// RunID -> subscribed clients
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.RunID] = append(h.clients[client.RunID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"run_id": client.RunID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.RunID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.RunID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.RunID]) == 0 {
					delete(h.clients, client.RunID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// PublishRunEvent delivers one serialized event to local subscribers of the
// run. Cross-instance delivery rides the redis channel the event service
// publishes to.
func (h *Hub) PublishRunEvent(runId uuid.UUID, data []byte) {
	h.mu.RLock()
	clients := h.clients[runId]
	var stale []*Client
	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{"run_id": runId})
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	// Hand stale clients to the unregister handler after releasing the lock;
	// it owns removing them and closing their Send channel.
	for _, client := range stale {
		h.unregister <- client
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.PSubscribe(ctx, redisRunPattern)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		// Channel name carries the run id: run_events:<uuid>
		idx := strings.LastIndex(msg.Channel, ":")
		if idx < 0 {
			continue
		}
		runId, err := uuid.Parse(msg.Channel[idx+1:])
		if err != nil {
			continue
		}

		// Validate it is JSON before fanning out.
		if !json.Valid([]byte(msg.Payload)) {
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[runId]
		h.mu.RUnlock()
		if !ok {
			continue
		}
		var stale []*Client
		for _, client := range clients {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
				stale = append(stale, client)
			}
		}
		for _, client := range stale {
			h.unregister <- client
		}
	}
}
