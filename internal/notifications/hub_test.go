package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(1, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrUserFull)

	_, err = hub.Register(2, nil)
	assert.NoError(t, err)
	assert.Equal(t, maxConnsPerUser+1, hub.Count())
}

func TestHub_TotalLimit(t *testing.T) {
	hub := NewHub()
	hub.total = 2

	_, err := hub.Register(1, nil)
	require.NoError(t, err)
	c, err := hub.Register(2, nil)
	require.NoError(t, err)
	_, err = hub.Register(3, nil)
	assert.ErrorIs(t, err, ErrServerFull)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Equal(t, 1, hub.Count())
	_, err = hub.Register(3, nil)
	assert.NoError(t, err)
}

func TestHub_BroadcastTargetsUser(t *testing.T) {
	hub := NewHub()
	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)

	hub.Broadcast(1, "for-a")
	assert.Equal(t, "for-a", string(<-a.send))
	assert.Empty(t, b.send)

	hub.BroadcastAll("everyone")
	assert.Equal(t, "everyone", string(<-a.send))
	assert.Equal(t, "everyone", string(<-b.send))
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.send, sendBuffer)

	assert.Equal(t, int64(5), c.dropped.Load())
	assert.Equal(t, `{"type":"events_dropped","payload":{"reason":"buffer_full","count":5}}`, string(dropNotice(5)))

	hub.UnregisterClient(c)
	c.TrySend([]byte("late"))
	assert.Len(t, c.send, sendBuffer)
}

func TestHub_StartWiringForwardsRedisEvents(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	client, err := hub.Register(5, nil)
	require.NoError(t, err)
	other, err := hub.Register(6, nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishUser(context.Background(), 5, EventImageGenerated, map[string]string{"id": "abc"}))

	var msg []byte
	require.Eventually(t, func() bool {
		select {
		case msg = <-client.send:
			return true
		default:
			return false
		}
	}, testEventuallyTimeout, testPollInterval)

	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventImageGenerated, ev.Type)
	assert.Empty(t, other.send)
}

func TestHub_ShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Zero(t, hub.Count())

	assert.True(t, c.closed())

	_, err = hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrShutdown)
}
