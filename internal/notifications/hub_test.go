package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"antisocial/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func receive(t *testing.T, c *Client) events.LikeEvent {
	t.Helper()
	select {
	case msg := <-c.Send:
		var ev events.LikeEvent
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(testEventuallyTimeout):
		t.Fatal("timed out waiting for message")
		return events.LikeEvent{}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message: %s", msg)
	default:
	}
}

func TestLikeHub_PublishRoutesByPost(t *testing.T) {
	hub := NewLikeHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	post5, err := hub.Register(5, nil)
	require.NoError(t, err)
	post6, err := hub.Register(6, nil)
	require.NoError(t, err)
	all, err := hub.Register(0, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, hub.ClientCount())

	require.NoError(t, hub.Publish(context.Background(), events.LikeEvent{PostID: 5, Liked: true, LikeCount: 1}))

	ev := receive(t, post5)
	assert.Equal(t, uint(5), ev.PostID)
	assert.Equal(t, uint(5), receive(t, all).PostID)
	assertEmpty(t, post6)
	assertEmpty(t, all)
}

func TestLikeHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewLikeHub()

	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-c.Send
	assert.False(t, open)

	// Delivery after unregister must not panic.
	hub.Deliver(1, []byte(`{}`))
}

func TestLikeHub_ShutdownRejectsRegistrations(t *testing.T) {
	hub := NewLikeHub()
	c, err := hub.Register(2, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())

	_, err = hub.Register(2, nil)
	assert.ErrorIs(t, err, ErrHubClosed)

	// ReadPump unregisters after shutdown; nothing is closed twice.
	hub.UnregisterClient(c)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewLikeHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	c, err := hub.Register(3, nil)
	require.NoError(t, err)

	for range sendBufferSize + 5 {
		c.TrySend([]byte(`{"type":"like_toggled"}`))
	}
	assert.Len(t, c.Send, sendBufferSize)
}

func TestLikeHub_StartWiringDeliversRedisEvents(t *testing.T) {
	rdb := setupRedis(t)
	n := NewNotifier(rdb)
	hub := NewLikeHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	follower, err := hub.Register(9, nil)
	require.NoError(t, err)
	all, err := hub.Register(0, nil)
	require.NoError(t, err)
	other, err := hub.Register(10, nil)
	require.NoError(t, err)

	require.NoError(t, NewRedisPublisher(n).Publish(context.Background(), events.LikeEvent{PostID: 9, LikeCount: 2}))

	assert.Equal(t, int64(2), receive(t, follower).LikeCount)
	assert.Equal(t, uint(9), receive(t, all).PostID)
	assert.Never(t, func() bool { return len(other.Send) > 0 || len(all.Send) > 0 },
		10*testPollInterval, testPollInterval)
}
