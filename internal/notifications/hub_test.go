package notifications

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()

	clientA, err := hub.Register(1, nil)
	require.NoError(t, err)
	clientB, err := hub.Register(1, nil)
	require.NoError(t, err)
	clientC, err := hub.Register(2, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, hub.ConnectionCount())
	assert.True(t, hub.IsOnline(1))
	assert.True(t, hub.IsOnline(2))
	assert.False(t, hub.IsOnline(3))

	hub.UnregisterClient(clientA)
	assert.Equal(t, 2, hub.ConnectionCount())
	assert.True(t, hub.IsOnline(1), "second tab keeps the user online")

	hub.UnregisterClient(clientB)
	assert.False(t, hub.IsOnline(1))

	// unregistering twice is harmless
	hub.UnregisterClient(clientB)
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.UnregisterClient(clientC)
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_PerUserConnectionCap(t *testing.T) {
	hub := NewHub()

	clients := make([]*Client, 0, maxConnsPerUser)
	for i := 0; i < maxConnsPerUser; i++ {
		c, err := hub.Register(7, nil)
		require.NoError(t, err)
		clients = append(clients, c)
	}

	_, err := hub.Register(7, nil)
	assert.Error(t, err, "connection beyond the per-user cap is refused")

	// another user is unaffected
	_, err = hub.Register(8, nil)
	assert.NoError(t, err)

	// freeing a slot lets the user connect again
	hub.UnregisterClient(clients[0])
	_, err = hub.Register(7, nil)
	assert.NoError(t, err)
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()

	alice1, err := hub.Register(1, nil)
	require.NoError(t, err)
	alice2, err := hub.Register(1, nil)
	require.NoError(t, err)
	bob, err := hub.Register(2, nil)
	require.NoError(t, err)

	hub.Broadcast(1, `{"type":"notification"}`)

	for _, c := range []*Client{alice1, alice2} {
		select {
		case msg := <-c.Send:
			assert.JSONEq(t, `{"type":"notification"}`, string(msg))
		default:
			t.Fatal("expected a message for the recipient's connection")
		}
	}
	select {
	case <-bob.Send:
		t.Fatal("another user's connection must not receive the notification")
	default:
	}

	t.Run("broadcast to an offline user is a no-op", func(t *testing.T) {
		hub.Broadcast(99, "lost")
	})
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := NewHub()

	var clients []*Client
	for userID := uint(1); userID <= 3; userID++ {
		c, err := hub.Register(userID, nil)
		require.NoError(t, err)
		clients = append(clients, c)
	}

	hub.BroadcastAll(`{"type":"reaction","postId":5}`)

	for _, c := range clients {
		select {
		case msg := <-c.Send:
			assert.Contains(t, string(msg), `"postId":5`)
		default:
			t.Fatalf("client for user %d missed the world broadcast", c.UserID)
		}
	}
}

func TestHub_BackpressureDropNotice(t *testing.T) {
	hub := NewHub()
	client, err := hub.Register(1, nil)
	require.NoError(t, err)

	// fill the send buffer without a reader
	for i := 0; i < cap(client.Send); i++ {
		client.TrySend([]byte(fmt.Sprintf("msg %d", i)))
	}
	// the next send cannot fit and must be dropped
	client.TrySend([]byte("overflow"))

	// drain: all buffered messages, then no overflow payload anywhere
	seen := make([]string, 0, cap(client.Send))
	for {
		select {
		case msg := <-client.Send:
			seen = append(seen, string(msg))
			continue
		default:
		}
		break
	}
	assert.NotContains(t, seen, "overflow", "overflowing message is dropped, not queued")

	// with room available again, the drop notice can be delivered
	client.TrySend([]byte("probe"))
	client.TrySend([]byte("probe2"))
	assert.Equal(t, cap(client.Send), len(seen))
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	_, err := hub.Register(1, nil)
	require.NoError(t, err)
	_, err = hub.Register(2, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.ConnectionCount())
	assert.False(t, hub.IsOnline(1))
}
