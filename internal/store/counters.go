package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nextID allocates the next value of a named sequence using an atomic
// findOneAndUpdate upsert on the counters collection. Sequences start at 1.
func nextID(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	var out struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Collection(collCounters).FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return 0, err
	}
	return out.Seq, nil
}
