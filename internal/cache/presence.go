// Package cache mirrors coarse online/offline status into Redis for the
// REST surface. It is advisory only: live routing decisions always come from
// the in-process registry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Status struct {
	Online   bool  `json:"online"`
	LastSeen int64 `json:"last_seen"`
}

type StatusStore struct {
	client *redis.Client
	prefix string
}

func NewStatusStore(client *redis.Client, prefix string) *StatusStore {
	return &StatusStore{client: client, prefix: prefix}
}

func (s *StatusStore) key(userID int64) string {
	return fmt.Sprintf("%s:presence:%d", s.prefix, userID)
}

func (s *StatusStore) SetOnline(ctx context.Context, userID int64) error {
	return s.set(ctx, userID, Status{Online: true, LastSeen: time.Now().Unix()})
}

func (s *StatusStore) SetOffline(ctx context.Context, userID int64) error {
	return s.set(ctx, userID, Status{Online: false, LastSeen: time.Now().Unix()})
}

func (s *StatusStore) set(ctx context.Context, userID int64, st Status) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(userID), b, 0).Err()
}

// Get returns the last recorded status; a user never seen before reads as
// offline.
func (s *StatusStore) Get(ctx context.Context, userID int64) (Status, error) {
	b, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	var st Status
	if err := json.Unmarshal(b, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}
