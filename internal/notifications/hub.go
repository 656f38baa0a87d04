package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"antisocial/internal/events"
	"antisocial/internal/middleware"
	"antisocial/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections following one post
	maxConnsPerPost = 1000
	// Max total connections
	maxTotalConns = 10000
)

var (
	// ErrServerConnLimit is returned by Register when the hub is full.
	ErrServerConnLimit = errors.New("server connection limit reached")
	// ErrPostConnLimit is returned by Register when a post has too many followers.
	ErrPostConnLimit = errors.New("post connection limit reached")
	// ErrHubClosed is returned by Register after Shutdown.
	ErrHubClosed = errors.New("like hub is shut down")
)

// LikeHub maps postID -> connected clients and streams like events to them. Clients registered
// under post 0 receive every event.
type LikeHub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	logger     *observability.WSLogger
}

// NewLikeHub creates an empty LikeHub.
func NewLikeHub() *LikeHub {
	return &LikeHub{
		conns:  make(map[uint]map[*Client]struct{}),
		logger: observability.NewWSLogger("like hub"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *LikeHub) Name() string { return "like hub" }

// Register a connection following postID. Returns the Client or an error if limits are exceeded.
func (h *LikeHub) Register(postID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[postID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[postID] = m
	}
	if len(m) >= maxConnsPerPost {
		return nil, ErrPostConnLimit
	}

	client := NewClient(h, conn, postID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()

	h.logger.LogConnect(context.Background(), client.ID, postID)
	return client, nil
}

// UnregisterClient removes client and closes its send channel. Safe to call more than once.
func (h *LikeHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.PostID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.PostID)
	}
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	close(client.Send)
}

// ClientCount returns the number of registered clients.
func (h *LikeHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// Deliver sends payload to every client following postID.
func (h *LikeHub) Deliver(postID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[postID] {
		c.TrySend(payload)
	}
}

// DeliverAll sends payload to every client following all posts.
func (h *LikeHub) DeliverAll(payload []byte) {
	h.Deliver(0, payload)
}

// Publish delivers ev to this instance's clients only. Use it as the event sink when no
// Redis notifier is available; otherwise StartWiring delivers events from every instance.
func (h *LikeHub) Publish(_ context.Context, ev events.LikeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal like event: %w", err)
	}
	h.Deliver(ev.PostID, payload)
	h.DeliverAll(payload)
	return nil
}

// StartWiring connects the Notifier to this hub: post channels reach the post's followers and
// the broadcast channel reaches clients following all posts.
func (h *LikeHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartLikeSubscriber(ctx, func(channel, payload string) {
		if channel == LikeBroadcastChannel {
			h.DeliverAll([]byte(payload))
			return
		}
		postID, ok := parseLikePostChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid like channel", slog.String("channel", channel))
			return
		}
		h.Deliver(postID, []byte(payload))
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *LikeHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	// Closing Send makes each WritePump write a close frame and drop the connection.
	for _, postConns := range h.conns {
		for client := range postConns {
			close(client.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0

	return nil
}
