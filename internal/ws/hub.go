package ws

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tutorlink/realtime-service/internal/model"
)

// StatusNotifier receives coarse online/offline transitions, best-effort.
type StatusNotifier interface {
	SetOnline(ctx context.Context, userID int64) error
	SetOffline(ctx context.Context, userID int64) error
}

// Hub tracks live connections by transport session and by bound user, and
// implements the gateway's outbound transport. One socket per user: a later
// binding for the same user steals the route from the earlier one.
type Hub struct {
	mu        sync.RWMutex
	bySession map[string]*Client
	byUser    map[int64]*Client

	status StatusNotifier
	log    *zap.SugaredLogger
}

func NewHub(status StatusNotifier, log *zap.SugaredLogger) *Hub {
	return &Hub{
		bySession: make(map[string]*Client),
		byUser:    make(map[int64]*Client),
		status:    status,
		log:       log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.bySession[c.SessionID()] = c
	h.mu.Unlock()
}

// Unregister drops the client and returns the user bound to it, if any. The
// user route is only removed when it still points at this client, so a
// reconnect that already stole the route is left alone.
func (h *Hub) Unregister(c *Client) (int64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.bySession, c.SessionID())
	userID, bound := c.BoundUser()
	if bound && h.byUser[userID] == c {
		delete(h.byUser, userID)
	}
	return userID, bound
}

// BindUser attaches a user to the transport session their join arrived on.
func (h *Hub) BindUser(sessionID string, userID int64) {
	h.mu.Lock()
	c, ok := h.bySession[sessionID]
	if ok {
		c.Bind(userID)
		h.byUser[userID] = c
	}
	h.mu.Unlock()
	if !ok {
		h.log.Debugw("bind for unknown session", "session_id", sessionID, "user_id", userID)
		return
	}
	if h.status != nil {
		go h.markOnline(userID)
	}
}

func (h *Hub) markOnline(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.status.SetOnline(ctx, userID); err != nil {
		h.log.Debugw("status mirror update failed", "user_id", userID, "err", err)
	}
}

// PushMessage delivers an envelope on the user's message queue.
func (h *Hub) PushMessage(userID int64, env model.Envelope) {
	h.push(userID, QueueMessages, env)
}

// PushReceipt delivers an envelope on the user's receipt queue.
func (h *Hub) PushReceipt(userID int64, env model.Envelope) {
	h.push(userID, QueueReceipts, env)
}

func (h *Hub) push(userID int64, queue string, env model.Envelope) {
	h.mu.RLock()
	c, ok := h.byUser[userID]
	h.mu.RUnlock()
	if !ok {
		// the receiver vanished between the presence check and the push;
		// best-effort, the durable copy covers persisted conversations
		return
	}
	frame, err := encodeFrame(queue, env)
	if err != nil {
		h.log.Errorw("frame encode failed", "queue", queue, "err", err)
		return
	}
	c.Enqueue(frame)
}
