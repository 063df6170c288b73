package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tutorlink/realtime-service/internal/model"
)

func TestRegistry_Register_AppearsInBothIndexes(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	key := model.PersistedKey(5)

	reg.Register(1, key, "sess-a")

	req.True(reg.IsUserInConversation(1, key))
	req.Contains(reg.UsersInConversation(key), int64(1))
	req.Contains(reg.ConversationsForUser(1), key)
	req.True(reg.IsConnected(1))

	sid, ok := reg.SessionID(1)
	req.True(ok)
	req.Equal("sess-a", sid)
}

func TestRegistry_Register_Idempotent(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	key := model.PersistedKey(5)

	reg.Register(1, key, "sess-a")
	reg.Register(1, key, "sess-a")

	req.Len(reg.UsersInConversation(key), 1)
	req.Len(reg.ConversationsForUser(1), 1)
}

func TestRegistry_Register_TracksLatestSession(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	reg.Register(1, model.PersistedKey(5), "sess-a")
	reg.Register(1, model.EphemeralKey("conv_1700000000_ab12"), "sess-b")

	sid, ok := reg.SessionID(1)
	req.True(ok)
	req.Equal("sess-b", sid)
}

func TestRegistry_Remove_LastConversationClearsSession(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	key := model.PersistedKey(5)

	reg.Register(1, key, "sess-a")
	reg.Remove(1, key)

	req.False(reg.IsUserInConversation(1, key))
	req.False(reg.IsConnected(1))
	req.Empty(reg.UsersInConversation(key))

	_, ok := reg.SessionID(1)
	req.False(ok)
}

func TestRegistry_Remove_KeepsSessionWhileOtherConversationsOpen(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	k5 := model.PersistedKey(5)
	k9 := model.PersistedKey(9)

	reg.Register(1, k5, "sess-a")
	reg.Register(1, k9, "sess-a")
	reg.Remove(1, k5)

	req.False(reg.IsUserInConversation(1, k5))
	req.True(reg.IsUserInConversation(1, k9))
	req.True(reg.IsConnected(1))
}

func TestRegistry_Remove_GarbageCollectsEmptyConversation(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	key := model.EphemeralKey("conv_1700000000_ab12")

	reg.Register(1, key, "sess-a")
	reg.Register(2, key, "sess-b")
	reg.Remove(1, key)

	req.Equal([]int64{2}, reg.UsersInConversation(key))

	reg.Remove(2, key)
	req.Empty(reg.UsersInConversation(key))
}

func TestRegistry_RemoveAll(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	k5 := model.PersistedKey(5)
	ke := model.EphemeralKey("conv_1700000000_ab12")

	reg.Register(1, k5, "sess-a")
	reg.Register(1, ke, "sess-a")
	reg.Register(2, k5, "sess-b")

	reg.RemoveAll(1)

	req.False(reg.IsConnected(1))
	req.Empty(reg.ConversationsForUser(1))
	req.NotContains(reg.UsersInConversation(k5), int64(1))
	req.Empty(reg.UsersInConversation(ke))

	// the other participant is untouched
	req.True(reg.IsUserInConversation(2, k5))
	req.True(reg.IsConnected(2))
}

func TestRegistry_PersistedAndEphemeralKeysDoNotCollide(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	reg.Register(1, model.PersistedKey(17), "sess-a")

	req.False(reg.IsUserInConversation(1, model.EphemeralKey("17")))
	req.Empty(reg.UsersInConversation(model.EphemeralKey("17")))
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	const users = 32
	const rounds = 200

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			key := model.PersistedKey(userID % 4)
			sid := fmt.Sprintf("sess-%d", userID)
			for i := 0; i < rounds; i++ {
				reg.Register(userID, key, sid)
				reg.IsUserInConversation(userID, key)
				reg.UsersInConversation(key)
				reg.Remove(userID, key)
			}
		}(int64(u))
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		req.False(reg.IsConnected(int64(u)))
		req.Empty(reg.ConversationsForUser(int64(u)))
	}
}
