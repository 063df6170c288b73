// Package events publishes persisted-message notifications to Kafka for the
// downstream notification and unread-count consumers. Publishing is
// best-effort: a broker outage never blocks or fails a send.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/tutorlink/realtime-service/internal/model"
)

type MessageSentEvent struct {
	MessageID      int64     `json:"message_id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type Producer struct {
	writer *kafkago.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Producer{writer: w}
}

// MessagePersisted emits one event per durably stored chat message, keyed by
// conversation so consumers see a conversation's events in order.
func (p *Producer) MessagePersisted(ctx context.Context, msg *model.Message) error {
	ev := MessageSentEvent{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(strconv.FormatInt(msg.ConversationID, 10)),
		Value: b,
		Time:  msg.CreatedAt,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
