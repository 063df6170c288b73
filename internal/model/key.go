package model

import (
	"fmt"
	"strconv"
)

// ConversationKey is the resolved identity of a conversation, used for every
// registry and routing lookup. A key is either backed by a persisted numeric
// conversation id or by a client-generated ephemeral string id. The two
// spaces never collide: the numeric branch is only taken for ids that
// actually exist in storage, so "17" the ephemeral string and conversation 17
// are distinct keys.
//
// ConversationKey is comparable and safe to use as a map key.
type ConversationKey struct {
	numeric   int64
	ephemeral string
	persisted bool
}

// PersistedKey builds the key for a stored conversation id.
func PersistedKey(id int64) ConversationKey {
	return ConversationKey{numeric: id, persisted: true}
}

// EphemeralKey builds the key for a client-generated conversation id
// (format like "conv_1700000000_ab12", but any non-resolving string lands
// here).
func EphemeralKey(raw string) ConversationKey {
	return ConversationKey{ephemeral: raw}
}

// Persisted reports whether the key is backed by a stored conversation and,
// if so, its numeric id.
func (k ConversationKey) Persisted() (int64, bool) {
	return k.numeric, k.persisted
}

func (k ConversationKey) IsZero() bool {
	return !k.persisted && k.ephemeral == ""
}

func (k ConversationKey) String() string {
	if k.persisted {
		return strconv.FormatInt(k.numeric, 10)
	}
	return k.ephemeral
}

func (k ConversationKey) GoString() string {
	if k.persisted {
		return fmt.Sprintf("ConversationKey(persisted:%d)", k.numeric)
	}
	return fmt.Sprintf("ConversationKey(ephemeral:%q)", k.ephemeral)
}

// ParseNumericID reports whether raw looks like a durable numeric id. The
// caller still has to confirm the id exists before treating the key as
// persisted.
func ParseNumericID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
