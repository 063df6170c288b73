// Package store implements the durable side of the messaging layer on
// MongoDB: user and conversation lookups plus the message store the gateway
// appends to and marks read through. Durable ids are numeric, allocated from
// a counters collection.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collUsers         = "users"
	collConversations = "conversations"
	collMessages      = "messages"
	collCounters      = "counters"
)

// Connect opens a Mongo client and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
