package model

import "time"

// User is the slice of the account record the messaging layer needs.
type User struct {
	ID       int64  `bson:"_id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	Role     string `bson:"role" json:"role"`
	Disabled bool   `bson:"disabled" json:"disabled"`
}

// Conversation is a two-participant thread backed by durable storage.
type Conversation struct {
	ID           int64     `bson:"_id" json:"id"`
	ParticipantA int64     `bson:"participant_a" json:"participant_a"`
	ParticipantB int64     `bson:"participant_b" json:"participant_b"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Other returns the participant opposite to userID, or false if userID is
// not part of the conversation.
func (c *Conversation) Other(userID int64) (int64, bool) {
	switch userID {
	case c.ParticipantA:
		return c.ParticipantB, true
	case c.ParticipantB:
		return c.ParticipantA, true
	}
	return 0, false
}

// Message is the durable record behind a persisted CHAT envelope.
type Message struct {
	ID             int64     `bson:"_id" json:"id"`
	ConversationID int64     `bson:"conversation_id" json:"conversation_id"`
	SenderID       int64     `bson:"sender_id" json:"sender_id"`
	ReceiverID     int64     `bson:"receiver_id" json:"receiver_id"`
	Content        string    `bson:"content" json:"content"`
	IsRead         bool      `bson:"is_read" json:"is_read"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
