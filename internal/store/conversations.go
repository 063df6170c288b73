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

// ConversationRepository resolves and creates two-participant conversation
// records.
type ConversationRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	coll := db.Collection(collConversations)
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "participant_a", Value: 1}, {Key: "participant_b", Value: 1}},
		Options: options.Index().SetName("participants_idx"),
	}
	_, _ = coll.Indexes().CreateOne(context.Background(), idx)
	return &ConversationRepository{db: db, coll: coll}
}

func (r *ConversationRepository) ConversationByID(ctx context.Context, id int64) (*model.Conversation, error) {
	var c model.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindOrCreate returns the conversation between the two users, creating it
// with a fresh numeric id when none exists. Participant order is ignored.
func (r *ConversationRepository) FindOrCreate(ctx context.Context, userA, userB int64) (*model.Conversation, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"participant_a": userA, "participant_b": userB},
		bson.M{"participant_a": userB, "participant_b": userA},
	}}
	var c model.Conversation
	err := r.coll.FindOne(ctx, filter).Decode(&c)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	id, err := nextID(ctx, r.db, collConversations)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c = model.Conversation{ID: id, ParticipantA: userA, ParticipantB: userB, CreatedAt: now, UpdatedAt: now}
	if _, err := r.coll.InsertOne(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
