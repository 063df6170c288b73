package ws

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tutorlink/realtime-service/internal/presence"
)

// Reaper purges a user's presence when their transport drops without a
// leave. It can only act when a join bound the user to the session; a socket
// that connected but never joined anything leaves nothing to clean up.
type Reaper struct {
	registry *presence.Registry
	status   StatusNotifier
	log      *zap.SugaredLogger
}

func NewReaper(registry *presence.Registry, status StatusNotifier, log *zap.SugaredLogger) *Reaper {
	return &Reaper{registry: registry, status: status, log: log}
}

func (r *Reaper) OnDisconnect(sessionID string, userID int64, bound bool) {
	if !bound {
		r.log.Debugw("disconnect without bound user", "session_id", sessionID)
		return
	}

	// a reconnect re-registers under a fresh session id; the old socket's
	// late close must not wipe the presence the new session established
	if current, ok := r.registry.SessionID(userID); ok && current != sessionID {
		r.log.Debugw("stale session disconnect", "session_id", sessionID, "user_id", userID, "current", current)
		return
	}

	r.registry.RemoveAll(userID)
	r.log.Infow("presence reaped", "session_id", sessionID, "user_id", userID)

	if r.status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.status.SetOffline(ctx, userID); err != nil {
			r.log.Debugw("status mirror update failed", "user_id", userID, "err", err)
		}
	}
}
