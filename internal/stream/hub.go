// Package stream fans workout events out to the owner's open websocket
// connections, across instances when Redis is configured.
package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "workouts:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix

	clientBuffer     = 64
	subscribeTimeout = 2 * time.Second
)

type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	done    chan struct{}
}

type Client struct {
	OwnerID string
	Send    chan []byte
}

// NewHub subscribes to the Redis event channels before returning, so events
// published right after construction are not missed. Without Redis, or when
// the subscription fails, events are delivered in-process only.
func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		clients: map[string]map[*Client]struct{}{},
		done:    make(chan struct{}),
	}
	if redisClient == nil {
		close(h.done)
		return h
	}

	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()
	pubsub := redisClient.PSubscribe(ctx, channelPattern)
	if _, err := pubsub.Receive(ctx); err != nil {
		slog.Error("redis subscribe failed, delivering events locally", "error", err)
		_ = pubsub.Close()
		close(h.done)
		return h
	}

	h.redis = redisClient
	h.pubsub = pubsub
	go h.forward()
	return h
}

func (h *Hub) Register(ownerID string) *Client {
	client := &Client{
		OwnerID: ownerID,
		Send:    make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[ownerID] == nil {
		h.clients[ownerID] = map[*Client]struct{}{}
	}
	h.clients[ownerID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ownerClients, ok := h.clients[client.OwnerID]
	if !ok {
		return
	}
	if _, ok := ownerClients[client]; !ok {
		return
	}
	delete(ownerClients, client)
	if len(ownerClients) == 0 {
		delete(h.clients, client.OwnerID)
	}
	close(client.Send)
}

// Subscribers reports how many connections the owner currently has.
func (h *Hub) Subscribers(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ownerID])
}

// Publish sends payload to every connection of ownerID. With Redis the event
// goes through the channel only and comes back via the subscription, so each
// connection sees it exactly once.
func (h *Hub) Publish(ownerID string, payload []byte) {
	if h.redis == nil {
		h.deliver(ownerID, payload)
		return
	}
	if err := h.redis.Publish(context.Background(), redisChannel(ownerID), payload).Err(); err != nil {
		slog.Error("redis publish failed", "error", err, "owner_id", ownerID)
		h.deliver(ownerID, payload)
	}
}

// Close stops the Redis subscription. Registered clients stay open.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	err := h.pubsub.Close()
	<-h.done
	return err
}

func (h *Hub) deliver(ownerID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[ownerID] {
		select {
		case client.Send <- payload:
		default:
			// slow consumer, drop
		}
	}
}

func (h *Hub) forward() {
	defer close(h.done)
	for msg := range h.pubsub.Channel() {
		ownerID := ownerIDFromChannel(msg.Channel)
		if ownerID == "" {
			continue
		}
		h.deliver(ownerID, []byte(msg.Payload))
	}
}

func redisChannel(ownerID string) string {
	return channelPrefix + ownerID + channelSuffix
}

func ownerIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	if ch[:len(channelPrefix)] != channelPrefix || ch[len(ch)-len(channelSuffix):] != channelSuffix {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
