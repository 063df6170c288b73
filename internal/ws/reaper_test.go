package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorlink/realtime-service/internal/model"
	"github.com/tutorlink/realtime-service/internal/presence"
)

func TestReaper_PurgesBoundUser(t *testing.T) {
	req := require.New(t)
	registry := presence.NewRegistry()
	status := &recordingStatus{}
	reaper := NewReaper(registry, status, zap.NewNop().Sugar())

	registry.Register(7, model.PersistedKey(5), "sess-1")
	registry.Register(7, model.EphemeralKey("conv_1700000000_ab12"), "sess-1")
	registry.Register(9, model.PersistedKey(5), "sess-2")

	reaper.OnDisconnect("sess-1", 7, true)

	req.False(registry.IsConnected(7))
	req.Empty(registry.ConversationsForUser(7))
	req.True(registry.IsConnected(9))
	req.Equal([]int64{7}, status.offline)
}

func TestReaper_StaleSessionDisconnectKeepsNewPresence(t *testing.T) {
	req := require.New(t)
	registry := presence.NewRegistry()
	status := &recordingStatus{}
	reaper := NewReaper(registry, status, zap.NewNop().Sugar())
	key := model.PersistedKey(5)

	// user 7 joined on the old socket, reconnected and joined again
	registry.Register(7, key, "sess-old")
	registry.Register(7, key, "sess-new")

	// the old socket's close arrives after the re-join
	reaper.OnDisconnect("sess-old", 7, true)

	req.True(registry.IsUserInConversation(7, key))
	req.True(registry.IsConnected(7))
	sid, ok := registry.SessionID(7)
	req.True(ok)
	req.Equal("sess-new", sid)
	req.Empty(status.offline)

	// the live session's own disconnect still purges
	reaper.OnDisconnect("sess-new", 7, true)
	req.False(registry.IsConnected(7))
	req.Equal([]int64{7}, status.offline)
}

func TestReaper_NoopWithoutBinding(t *testing.T) {
	req := require.New(t)
	registry := presence.NewRegistry()
	status := &recordingStatus{}
	reaper := NewReaper(registry, status, zap.NewNop().Sugar())

	// a user who joined but whose socket never got bound (not possible via
	// the gateway, but the reaper must not guess)
	registry.Register(7, model.PersistedKey(5), "sess-1")

	reaper.OnDisconnect("sess-1", 0, false)

	// stale entries stay until an explicit leave arrives
	req.True(registry.IsConnected(7))
	req.Empty(status.offline)
}
