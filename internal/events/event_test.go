package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"antisocial/internal/observability"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	name   string
	err    error
	events []LikeEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev LikeEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) Name() string { return r.name }

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewLikeToggled_CarriesCorrelationID(t *testing.T) {
	ctx := observability.WithCorrelationID(context.Background(), "corr-1")

	ev := NewLikeToggled(ctx, 5, 1, true, 3)

	assert.Equal(t, TypeLikeToggled, ev.Type)
	assert.Equal(t, uint(5), ev.PostID)
	assert.Equal(t, uint(1), ev.UserID)
	assert.True(t, ev.Liked)
	assert.Equal(t, int64(3), ev.LikeCount)
	assert.Equal(t, "corr-1", ev.CorrelationID)
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestMulti_PublishesToEverySinkAndJoinsErrors(t *testing.T) {
	boom := errors.New("sink down")
	ok := &recordingPublisher{name: "ok"}
	failing := &recordingPublisher{name: "failing", err: boom}
	after := &recordingPublisher{name: "after"}

	err := Multi{ok, failing, nil, after}.Publish(context.Background(), LikeEvent{PostID: 9})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, ok.events, 1)
	assert.Len(t, failing.events, 1)
	assert.Len(t, after.events, 1)
}

func TestMulti_EmptyIsNoop(t *testing.T) {
	assert.NoError(t, Multi{}.Publish(context.Background(), LikeEvent{}))
	assert.NoError(t, Nop{}.Publish(context.Background(), LikeEvent{}))
}

func TestKafkaPublisher_KeysByPostID(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w, topic: "likes.toggled"}
	ctx := observability.WithCorrelationID(context.Background(), "corr-2")

	require.NoError(t, p.Publish(ctx, NewLikeToggled(ctx, 42, 7, false, 0)))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "corr-2", string(msg.Headers[0].Value))

	var decoded LikeEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, uint(42), decoded.PostID)
	assert.False(t, decoded.Liked)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &KafkaPublisher{w: &fakeWriter{err: boom}, topic: "likes.toggled"}

	err := p.Publish(context.Background(), LikeEvent{PostID: 1})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "likes.toggled")
	assert.Equal(t, "kafka", p.Name())
}
