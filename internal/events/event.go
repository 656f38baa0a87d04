// Package events defines the like_toggled event and the publishers that carry it out of the
// service.
package events

import (
	"context"
	"errors"
	"time"

	"antisocial/internal/observability"
)

// TypeLikeToggled is the event type emitted after every successful toggle.
const TypeLikeToggled = "like_toggled"

// LikeEvent describes the state of a (user, post) pair right after a toggle.
type LikeEvent struct {
	Type          string    `json:"type"`
	PostID        uint      `json:"postId"`
	UserID        uint      `json:"userId"`
	Liked         bool      `json:"liked"`
	LikeCount     int64     `json:"likeCount"`
	OccurredAt    time.Time `json:"occurredAt"`
	CorrelationID string    `json:"correlationId,omitempty"`
}

// NewLikeToggled builds a like_toggled event stamped with the request correlation id.
func NewLikeToggled(ctx context.Context, postID, userID uint, liked bool, likeCount int64) LikeEvent {
	return LikeEvent{
		Type:          TypeLikeToggled,
		PostID:        postID,
		UserID:        userID,
		Liked:         liked,
		LikeCount:     likeCount,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: observability.ExtractCorrelationID(ctx),
	}
}

// Publisher delivers like events to one sink.
type Publisher interface {
	Publish(ctx context.Context, ev LikeEvent) error
	Name() string
}

// Multi fans an event out to every publisher. All sinks are attempted; failures are counted
// per sink and joined.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, ev LikeEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			observability.EventPublishErrors.WithLabelValues(p.Name()).Inc()
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Name implements Publisher.
func (m Multi) Name() string { return "multi" }

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, LikeEvent) error { return nil }

// Name implements Publisher.
func (Nop) Name() string { return "nop" }
