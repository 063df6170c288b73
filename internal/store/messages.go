package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tutorlink/realtime-service/internal/model"
)

// MessageRepository appends and reads back durable chat messages.
type MessageRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	coll := db.Collection(collMessages)
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("conversation_created_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &MessageRepository{db: db, coll: coll}
}

// Append stores a new message with a server-assigned id and timestamp and
// bumps the conversation's updated_at.
func (r *MessageRepository) Append(ctx context.Context, conversationID, senderID, receiverID int64, content string) (*model.Message, error) {
	id, err := nextID(ctx, r.db, collMessages)
	if err != nil {
		return nil, err
	}
	msg := &model.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		IsRead:         false,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	_, _ = r.db.Collection(collConversations).UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"updated_at": msg.CreatedAt}})
	return msg, nil
}

// MarkRead flips the read flag and returns the updated record, or
// model.ErrNotFound for unknown ids.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID int64) (*model.Message, error) {
	var msg model.Message
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"is_read": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

// Latest returns up to limit messages of a conversation in chronological
// order.
func (r *MessageRepository) Latest(ctx context.Context, conversationID int64, limit int64) ([]*model.Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.Message
	for cur.Next(ctx) {
		var m model.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
