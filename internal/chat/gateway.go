// Package chat implements the realtime protocol handlers: join, leave, send
// and read-receipt events arriving over the websocket transport. The gateway
// resolves conversation identifiers, keeps the presence registry current,
// persists chat messages through the external store and decides per event
// whether live delivery is possible or the durable copy has to carry it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tutorlink/realtime-service/internal/model"
	"github.com/tutorlink/realtime-service/internal/presence"
)

// UserLookup resolves user ids to account records.
type UserLookup interface {
	UserByID(ctx context.Context, id int64) (*model.User, error)
}

// ConversationLookup resolves persisted numeric conversation ids.
type ConversationLookup interface {
	ConversationByID(ctx context.Context, id int64) (*model.Conversation, error)
}

// MessageStore is the durable side of the messaging layer. Append returns
// the stored record with its server-assigned id and timestamp; MarkRead
// returns model.ErrNotFound for unknown message ids.
type MessageStore interface {
	Append(ctx context.Context, conversationID, senderID, receiverID int64, content string) (*model.Message, error)
	MarkRead(ctx context.Context, messageID int64) (*model.Message, error)
}

// Transport is the outbound side of the protocol: the two per-user queues,
// plus the user-to-session binding the disconnect reaper relies on.
type Transport interface {
	PushMessage(userID int64, env model.Envelope)
	PushReceipt(userID int64, env model.Envelope)
	BindUser(sessionID string, userID int64)
}

// EventPublisher receives a notification for every successfully persisted
// chat message. Failures are logged and otherwise ignored.
type EventPublisher interface {
	MessagePersisted(ctx context.Context, msg *model.Message) error
}

// NopPublisher discards persisted-message events.
type NopPublisher struct{}

func (NopPublisher) MessagePersisted(context.Context, *model.Message) error { return nil }

// Gateway wires the protocol handlers together. All exported handlers are
// fire-and-forget: any resolution or persistence failure is logged and the
// event dropped, nothing propagates back to the client.
type Gateway struct {
	registry  *presence.Registry
	users     UserLookup
	convs     ConversationLookup
	store     MessageStore
	transport Transport
	events    EventPublisher
	log       *zap.SugaredLogger

	now func() time.Time
}

func NewGateway(
	registry *presence.Registry,
	users UserLookup,
	convs ConversationLookup,
	store MessageStore,
	transport Transport,
	events EventPublisher,
	log *zap.SugaredLogger,
) *Gateway {
	if events == nil {
		events = NopPublisher{}
	}
	return &Gateway{
		registry:  registry,
		users:     users,
		convs:     convs,
		store:     store,
		transport: transport,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// resolveConversation derives the ConversationKey for a raw client-supplied
// id. The persisted branch is only taken when the id parses as int64 AND the
// conversation exists, so a given raw string always lands on the same key.
func (g *Gateway) resolveConversation(ctx context.Context, raw string) (model.ConversationKey, *model.Conversation, error) {
	id, ok := model.ParseNumericID(raw)
	if !ok {
		return model.EphemeralKey(raw), nil, nil
	}
	conv, err := g.convs.ConversationByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		// numeric shape but nothing stored under it: treat like any other
		// client-generated id
		return model.EphemeralKey(raw), nil, nil
	}
	if err != nil {
		return model.ConversationKey{}, nil, fmt.Errorf("conversation lookup %q: %w", raw, err)
	}
	return model.PersistedKey(conv.ID), conv, nil
}

// Join registers the sender's presence in the conversation and notifies the
// other participant if they currently have the same conversation open.
func (g *Gateway) Join(ctx context.Context, env model.Envelope, sessionID string) {
	if err := g.handleJoin(ctx, env, sessionID); err != nil {
		g.log.Warnw("join dropped", "conversation_id", env.ConversationID, "sender_id", env.SenderID, "err", err)
	}
}

func (g *Gateway) handleJoin(ctx context.Context, env model.Envelope, sessionID string) error {
	key, conv, err := g.resolveConversation(ctx, env.ConversationID)
	if err != nil {
		return err
	}

	g.registry.Register(env.SenderID, key, sessionID)
	// bind the user to the transport session so an abrupt disconnect can be
	// traced back to them
	g.transport.BindUser(sessionID, env.SenderID)

	if conv == nil {
		// no participant record exists to notify
		return nil
	}
	other, ok := conv.Other(env.SenderID)
	if !ok {
		return fmt.Errorf("user %d is not a participant of conversation %d: %w", env.SenderID, conv.ID, model.ErrNotFound)
	}
	if g.registry.IsUserInConversation(other, key) {
		g.transport.PushMessage(other, model.Envelope{
			SenderID:       env.SenderID,
			ReceiverID:     other,
			ConversationID: env.ConversationID,
			Timestamp:      g.now().UTC(),
			Kind:           model.KindJoin,
		})
	}
	return nil
}

// Leave deregisters the sender's presence and notifies the other participant
// if they are still viewing the conversation.
func (g *Gateway) Leave(ctx context.Context, env model.Envelope) {
	if err := g.handleLeave(ctx, env); err != nil {
		g.log.Warnw("leave dropped", "conversation_id", env.ConversationID, "sender_id", env.SenderID, "err", err)
	}
}

func (g *Gateway) handleLeave(ctx context.Context, env model.Envelope) error {
	key, conv, err := g.resolveConversation(ctx, env.ConversationID)
	if err != nil {
		return err
	}

	g.registry.Remove(env.SenderID, key)

	if conv == nil {
		return nil
	}
	other, ok := conv.Other(env.SenderID)
	if !ok {
		return fmt.Errorf("user %d is not a participant of conversation %d: %w", env.SenderID, conv.ID, model.ErrNotFound)
	}
	if g.registry.IsUserInConversation(other, key) {
		g.transport.PushMessage(other, model.Envelope{
			SenderID:       env.SenderID,
			ReceiverID:     other,
			ConversationID: env.ConversationID,
			Timestamp:      g.now().UTC(),
			Kind:           model.KindLeave,
		})
	}
	return nil
}

// Send persists the chat message when the conversation is durable, then
// delivers it live to the receiver if they have the conversation open. The
// sender always gets the (possibly store-enriched) envelope back as an ack.
func (g *Gateway) Send(ctx context.Context, env model.Envelope) {
	if err := g.handleSend(ctx, env); err != nil {
		g.log.Warnw("send dropped", "conversation_id", env.ConversationID, "sender_id", env.SenderID, "err", err)
	}
}

func (g *Gateway) handleSend(ctx context.Context, env model.Envelope) error {
	sender, err := g.users.UserByID(ctx, env.SenderID)
	if err != nil {
		return fmt.Errorf("resolve sender %d: %w", env.SenderID, err)
	}
	receiver, err := g.users.UserByID(ctx, env.ReceiverID)
	if err != nil {
		return fmt.Errorf("resolve receiver %d: %w", env.ReceiverID, err)
	}

	key, _, err := g.resolveConversation(ctx, env.ConversationID)
	if err != nil {
		return err
	}

	env.Kind = model.KindChat
	env.Touch(g.now())

	if convID, persisted := key.Persisted(); persisted {
		msg, err := g.store.Append(ctx, convID, sender.ID, receiver.ID, env.Content)
		if err != nil {
			return fmt.Errorf("append message to conversation %d: %w", convID, err)
		}
		env.ID = fmt.Sprintf("%d", msg.ID)
		env.Timestamp = msg.CreatedAt
		env.IsRead = msg.IsRead

		if err := g.events.MessagePersisted(ctx, msg); err != nil {
			g.log.Warnw("message event publish failed", "message_id", msg.ID, "err", err)
		}
	}
	// ephemeral conversations keep the client-supplied id and timestamp; no
	// durable copy exists for later retrieval

	if g.registry.IsUserInConversation(receiver.ID, key) {
		g.transport.PushMessage(receiver.ID, env)
	}
	g.transport.PushMessage(sender.ID, env)
	return nil
}

// Read marks a persisted message read and routes a receipt to the message's
// sender. For durable message ids the sender recorded in the store wins over
// whatever the client put in the payload; client-generated ids skip
// persistence and pass through as-is.
func (g *Gateway) Read(ctx context.Context, env model.Envelope) {
	if err := g.handleRead(ctx, env); err != nil {
		g.log.Warnw("read receipt dropped", "message_id", env.ID, "sender_id", env.SenderID, "err", err)
	}
}

func (g *Gateway) handleRead(ctx context.Context, env model.Envelope) error {
	if msgID, ok := model.ParseNumericID(env.ID); ok {
		msg, err := g.store.MarkRead(ctx, msgID)
		if err != nil {
			return fmt.Errorf("mark message %d read: %w", msgID, err)
		}
		env.SenderID = msg.SenderID
	}
	env.IsRead = true

	if g.registry.IsConnected(env.SenderID) {
		g.transport.PushReceipt(env.SenderID, env)
	}
	return nil
}
