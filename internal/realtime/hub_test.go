package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetra-app/vetra/internal/events"
)

// drain pops every queued payload without blocking.
func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case data := <-c.send:
			out = append(out, data)
		default:
			return out
		}
	}
}

func isClosed(c *Client) bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func TestSendToIdentity(t *testing.T) {
	hub := NewHub()
	shop := NewClient(hub, nil, ClassShop, 7)
	other := NewClient(hub, nil, ClassShop, 8)
	hub.Register(shop)
	hub.Register(other)

	hub.SendToIdentity(events.New("product.approved", map[string]any{"product_id": int64(42)}), ClassShop, 7)

	got := drain(shop)
	require.Len(t, got, 1)
	var evt events.Event
	require.NoError(t, json.Unmarshal(got[0], &evt))
	assert.Equal(t, "product.approved", evt.Event)
	assert.Empty(t, drain(other))
}

func TestSendToIdentityUnknownIsDropped(t *testing.T) {
	hub := NewHub()
	// no client registered for this identity, must not panic or block
	hub.SendToIdentity(events.New("balance.updated", nil), ClassShop, 99)
}

func TestRegisterReplacesPreviousConnection(t *testing.T) {
	hub := NewHub()
	old := NewClient(hub, nil, ClassUser, 1)
	hub.Register(old)
	hub.JoinRoom(old, "generation:5")

	replacement := NewClient(hub, nil, ClassUser, 1)
	hub.Register(replacement)

	assert.True(t, isClosed(old), "stale connection must be shut down")

	hub.BroadcastToClass(events.New("settings.updated", nil), ClassUser)
	assert.Len(t, drain(replacement), 1, "replacement receives exactly one copy")
	assert.Empty(t, drain(old), "stale connection receives nothing")

	st := hub.Stats()
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.ByClass[ClassUser])
	assert.NotContains(t, st.Rooms, "generation:5", "stale connection's room membership is gone")
}

func TestUnregisterIsIdempotentForReplacedClient(t *testing.T) {
	hub := NewHub()
	old := NewClient(hub, nil, ClassUser, 1)
	hub.Register(old)
	replacement := NewClient(hub, nil, ClassUser, 1)
	hub.Register(replacement)

	// The old connection's read loop will still call Unregister when its
	// socket dies. That must not evict the replacement.
	hub.Unregister(old)

	hub.BroadcastToClass(events.New("product.updated", nil), ClassUser)
	assert.Len(t, drain(replacement), 1)
	assert.Equal(t, 1, hub.Stats().Total)
}

func TestBroadcastToClassIsolatesClasses(t *testing.T) {
	hub := NewHub()
	user := NewClient(hub, nil, ClassUser, 1)
	shop := NewClient(hub, nil, ClassShop, 1)
	admin := NewClient(hub, nil, ClassAdmin, 1)
	hub.Register(user)
	hub.Register(shop)
	hub.Register(admin)

	hub.BroadcastToClass(events.New("moderation.queue_updated", map[string]any{"pending_count": 3}), ClassAdmin)

	assert.Len(t, drain(admin), 1)
	assert.Empty(t, drain(user))
	assert.Empty(t, drain(shop))
}

func TestBroadcastSurvivesDeadRecipient(t *testing.T) {
	hub := NewHub()
	dead := NewClient(hub, nil, ClassUser, 1)
	alive := NewClient(hub, nil, ClassUser, 2)
	hub.Register(dead)
	hub.Register(alive)
	dead.shutdown()

	hub.BroadcastToClass(events.New("product.deleted", nil), ClassUser)

	assert.Len(t, drain(alive), 1, "healthy recipient still gets the event")
	st := hub.Stats()
	assert.Equal(t, 1, st.ByClass[ClassUser], "dead recipient is evicted during delivery")
}

func TestRoomDelivery(t *testing.T) {
	hub := NewHub()
	member := NewClient(hub, nil, ClassUser, 1)
	outsider := NewClient(hub, nil, ClassUser, 2)
	hub.Register(member)
	hub.Register(outsider)
	hub.JoinRoom(member, "generation:9")

	hub.BroadcastToRoom(events.New("generation.completed", nil), "generation:9")
	assert.Len(t, drain(member), 1)
	assert.Empty(t, drain(outsider))

	hub.LeaveRoom(member, "generation:9")
	hub.BroadcastToRoom(events.New("generation.completed", nil), "generation:9")
	assert.Empty(t, drain(member))
	assert.NotContains(t, hub.Stats().Rooms, "generation:9", "empty room is dropped")
}

func TestKickClosesConnection(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, ClassShop, 4)
	hub.Register(c)

	hub.Kick(ClassShop, 4)

	assert.True(t, isClosed(c))
	assert.Equal(t, 0, hub.Stats().Total)

	// kicking an identity with no connection is a no-op
	hub.Kick(ClassShop, 4)
}

func TestStatsCensus(t *testing.T) {
	hub := NewHub()
	for i := int64(1); i <= 3; i++ {
		hub.Register(NewClient(hub, nil, ClassUser, i))
	}
	shop := NewClient(hub, nil, ClassShop, 1)
	hub.Register(shop)
	hub.JoinRoom(shop, "generation:1")

	st := hub.Stats()
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 3, st.ByClass[ClassUser])
	assert.Equal(t, 1, st.ByClass[ClassShop])
	assert.Equal(t, 0, st.ByClass[ClassAdmin])
	assert.Equal(t, 1, st.Rooms["generation:1"])
}

func TestEnqueueAfterShutdownFails(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, ClassUser, 1)
	c.shutdown()
	assert.False(t, c.enqueue([]byte("{}")))
}

func TestEnqueueFullQueueFails(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, ClassUser, 1)
	for i := 0; i < sendQueueSize; i++ {
		require.True(t, c.enqueue([]byte("{}")))
	}
	assert.False(t, c.enqueue([]byte("{}")), "full queue signals a dead connection")
}
