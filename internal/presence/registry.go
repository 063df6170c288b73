// Package presence holds the process-wide index of which user currently has
// which conversation open, and over which transport session. It is the single
// source of presence truth: the gateway asks it "is the other participant
// looking at this conversation right now" before attempting a live push.
//
// All state is volatile. Nothing here survives a restart, and nothing needs
// to: presence is reestablished by clients rejoining.
package presence

import (
	"sync"

	"github.com/tutorlink/realtime-service/internal/model"
)

type userSet map[int64]struct{}
type keySet map[model.ConversationKey]struct{}

// Registry maintains three co-dependent indexes:
//
//	byUser:         user id  -> conversations the user has open
//	byConversation: conv key -> users viewing the conversation
//	sessions:       user id  -> latest transport session id
//
// Every mutation touches all affected indexes under the same critical
// section, so readers never observe a (user, conversation) pair present in
// one index and missing from another.
type Registry struct {
	mu             sync.RWMutex
	byUser         map[int64]keySet
	byConversation map[model.ConversationKey]userSet
	sessions       map[int64]string
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:         make(map[int64]keySet),
		byConversation: make(map[model.ConversationKey]userSet),
		sessions:       make(map[int64]string),
	}
}

// Register adds the (user, conversation, session) association. Set
// semantics: registering the same pair twice leaves state unchanged, apart
// from the session id which always tracks the latest transport session.
func (r *Registry) Register(userID int64, key model.ConversationKey, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[userID]; !ok {
		r.byUser[userID] = make(keySet)
	}
	r.byUser[userID][key] = struct{}{}

	if _, ok := r.byConversation[key]; !ok {
		r.byConversation[key] = make(userSet)
	}
	r.byConversation[key][userID] = struct{}{}

	r.sessions[userID] = sessionID
}

// Remove drops the (user, conversation) pair. Emptied conversation sets are
// garbage-collected, and the user's session binding is cleared once their
// last conversation is gone.
func (r *Registry) Remove(userID int64, key model.ConversationKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(userID, key)
}

func (r *Registry) removeLocked(userID int64, key model.ConversationKey) {
	if keys, ok := r.byUser[userID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(r.byUser, userID)
			delete(r.sessions, userID)
		}
	}
	if users, ok := r.byConversation[key]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(r.byConversation, key)
		}
	}
}

// RemoveAll purges every trace of the user, used on abrupt transport
// disconnect.
func (r *Registry) RemoveAll(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.byUser[userID] {
		if users, ok := r.byConversation[key]; ok {
			delete(users, userID)
			if len(users) == 0 {
				delete(r.byConversation, key)
			}
		}
	}
	delete(r.byUser, userID)
	delete(r.sessions, userID)
}

// IsUserInConversation reports whether the user currently has the
// conversation open.
func (r *Registry) IsUserInConversation(userID int64, key model.ConversationKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUser[userID][key]
	return ok
}

// IsConnected reports whether the user has any active transport session.
func (r *Registry) IsConnected(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sessions[userID]
	return ok
}

// UsersInConversation returns the users currently viewing the conversation.
func (r *Registry) UsersInConversation(key model.ConversationKey) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := r.byConversation[key]
	if len(users) == 0 {
		return nil
	}
	out := make([]int64, 0, len(users))
	for id := range users {
		out = append(out, id)
	}
	return out
}

// ConversationsForUser returns the conversations the user has open.
func (r *Registry) ConversationsForUser(userID int64) []model.ConversationKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.byUser[userID]
	if len(keys) == 0 {
		return nil
	}
	out := make([]model.ConversationKey, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	return out
}

// SessionID returns the user's latest transport session id, if any.
func (r *Registry) SessionID(userID int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sid, ok := r.sessions[userID]
	return sid, ok
}
