// Package ws is the websocket transport: connection lifecycle, the per-user
// outbound queues and the dispatch of inbound protocol events to the chat
// gateway.
package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tutorlink/realtime-service/internal/auth"
	"github.com/tutorlink/realtime-service/internal/chat"
	"github.com/tutorlink/realtime-service/internal/config"
)

const localsUserKey = "ws:user"

type Handler struct {
	gateway   *chat.Gateway
	hub       *Hub
	reaper    *Reaper
	validator *auth.Validator
	cfg       *config.Config
	log       *zap.SugaredLogger
}

func NewHandler(gateway *chat.Gateway, hub *Hub, reaper *Reaper, validator *auth.Validator, cfg *config.Config, log *zap.SugaredLogger) *Handler {
	return &Handler{gateway: gateway, hub: hub, reaper: reaper, validator: validator, cfg: cfg, log: log}
}

// Register mounts the upgrade route. The token travels in the Authorization
// header or, for browser clients that cannot set headers on websockets, the
// token query parameter.
func (h *Handler) Register(router fiber.Router) {
	router.Use("/ws", h.authorize)
	router.Get("/ws", websocket.New(h.handleConn))
}

func (h *Handler) authorize(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		var err error
		token, err = auth.ExtractBearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
	}
	claims, err := h.validator.Validate(token)
	if err != nil {
		h.log.Warnw("upgrade rejected", "err", err)
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	c.Locals(localsUserKey, claims.UserID)
	return c.Next()
}

func (h *Handler) handleConn(conn *websocket.Conn) {
	sessionID := uuid.NewString()
	client := NewClient(sessionID, conn, h.cfg.WS.SendBufferSize, h.log)

	h.hub.Register(client)
	go client.writePump(h.cfg.PingInterval, h.cfg.WriteDeadline)

	authUser, _ := conn.Locals(localsUserKey).(int64)
	h.log.Infow("connection opened", "session_id", sessionID, "auth_user", authUser)

	h.readLoop(client, conn, authUser)

	userID, bound := h.hub.Unregister(client)
	client.Close()
	h.reaper.OnDisconnect(sessionID, userID, bound)
	h.log.Infow("connection closed", "session_id", sessionID)
}

// stampIdentity forces the authenticated user onto the envelope fields a
// client could otherwise spoof. Join, leave and send act as the sender; a
// read receipt is submitted by the reader, whose slot is the receiver (the
// sender field names the message's author and is corrected by the gateway).
func stampIdentity(frame *InboundFrame, userID int64) {
	switch frame.Event {
	case EventJoin, EventLeave, EventSend:
		frame.Payload.SenderID = userID
	case EventRead:
		frame.Payload.ReceiverID = userID
	}
}

func (h *Handler) readLoop(client *Client, conn *websocket.Conn, authUser int64) {
	conn.SetReadLimit(h.cfg.WS.MaxMessageSizeBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadDeadline))
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		var frame InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.log.Debugw("malformed frame", "session_id", client.SessionID(), "err", err)
			continue
		}
		stampIdentity(&frame, authUser)

		// handlers run to completion, there is no per-event cancellation
		ctx := context.Background()
		switch frame.Event {
		case EventJoin:
			h.gateway.Join(ctx, frame.Payload, client.SessionID())
		case EventLeave:
			h.gateway.Leave(ctx, frame.Payload)
		case EventSend:
			h.gateway.Send(ctx, frame.Payload)
		case EventRead:
			h.gateway.Read(ctx, frame.Payload)
		default:
			h.log.Debugw("unknown event", "event", frame.Event, "session_id", client.SessionID())
		}
	}
}
