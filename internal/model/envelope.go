package model

import "time"

// MessageKind classifies the in-flight envelopes exchanged over the
// realtime transport.
type MessageKind string

const (
	KindChat  MessageKind = "CHAT"
	KindJoin  MessageKind = "JOIN"
	KindLeave MessageKind = "LEAVE"
)

// Envelope is the wire-level message object. It is never persisted itself:
// a CHAT envelope that went through the message store carries the durable
// id and timestamp assigned there, anything else keeps whatever the client
// supplied.
type Envelope struct {
	ID             string      `json:"id"`
	SenderID       int64       `json:"sender_id"`
	ReceiverID     int64       `json:"receiver_id"`
	ConversationID string      `json:"conversation_id"`
	Content        string      `json:"content"`
	Timestamp      time.Time   `json:"timestamp"`
	IsRead         bool        `json:"is_read"`
	Kind           MessageKind `json:"kind"`
}

// Touch sets the timestamp if the client left it empty.
func (e *Envelope) Touch(now time.Time) {
	if e.Timestamp.IsZero() {
		e.Timestamp = now.UTC()
	}
}
