// Package service holds the business logic of the like subsystem.
package service

import (
	"context"
	"errors"
	"log/slog"

	"antisocial/internal/events"
	"antisocial/internal/middleware"
	"antisocial/internal/models"
	"antisocial/internal/observability"
	"antisocial/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// MaxSummaryPosts bounds the number of distinct posts in one Summaries call.
	MaxSummaryPosts = 100

	defaultListLimit = 20
	maxListLimit     = 100
)

// LikeService toggles likes and answers aggregate questions about them.
type LikeService struct {
	likeRepo  repository.LikeRepository
	publisher events.Publisher
	logger    *observability.StructuredLogger
}

// NewLikeService creates a LikeService. A nil publisher discards events.
func NewLikeService(likeRepo repository.LikeRepository, publisher events.Publisher) *LikeService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &LikeService{
		likeRepo:  likeRepo,
		publisher: publisher,
		logger:    observability.NewStructuredLogger(),
	}
}

// ToggleLike flips the like of userID on postID and returns the resulting state with the
// post's fresh count. A toggle that races another toggle on the same pair returns the state
// the race left behind instead of failing.
func (s *LikeService) ToggleLike(ctx context.Context, userID, postID uint) (*models.LikeToggleResult, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := validatePostID(postID); err != nil {
		return nil, err
	}

	span, ctx := observability.NewSpan(ctx, "LikeService.ToggleLike",
		attribute.Int64("post.id", int64(postID)),
		attribute.Int64("user.id", int64(userID)),
	)
	defer span.End()

	liked, mutated, err := s.toggle(ctx, userID, postID)
	if err != nil {
		span.SetError(err)
		s.logger.LogServiceError(ctx, "LikeService", "ToggleLike", err)
		return nil, models.NewInternalError(err)
	}

	count, err := s.likeRepo.CountByPost(ctx, postID)
	if err != nil {
		span.SetError(err)
		s.logger.LogServiceError(ctx, "LikeService", "ToggleLike", err)
		return nil, models.NewInternalError(err)
	}
	count = max(count, 0)

	result := &models.LikeToggleResult{Liked: liked, LikeCount: count}
	span.AddAttributes(attribute.Bool("like.liked", liked), attribute.Bool("like.mutated", mutated))

	if !mutated {
		observability.LikeToggles.WithLabelValues("resolved").Inc()
		return result, nil
	}
	if liked {
		observability.LikeToggles.WithLabelValues("liked").Inc()
	} else {
		observability.LikeToggles.WithLabelValues("unliked").Inc()
	}

	if err := s.publisher.Publish(ctx, events.NewLikeToggled(ctx, postID, userID, liked, count)); err != nil {
		middleware.Logger.WarnContext(ctx, "like event publish failed",
			slog.Uint64("post_id", uint64(postID)),
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}

// toggle performs the read-then-act cycle. mutated is false when a concurrent toggle made the
// intended change first and the state was re-read.
func (s *LikeService) toggle(ctx context.Context, userID, postID uint) (liked, mutated bool, err error) {
	isLiked, err := s.likeRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return false, false, err
	}

	if isLiked {
		removed, err := s.likeRepo.Unlike(ctx, userID, postID)
		if err != nil {
			return false, false, err
		}
		if !removed {
			liked, err := s.resolveConflict(ctx, userID, postID)
			return liked, false, err
		}
		return false, true, nil
	}

	created, err := s.likeRepo.Like(ctx, userID, postID)
	switch {
	case errors.Is(err, repository.ErrLikeConflict), err == nil && !created:
		liked, err := s.resolveConflict(ctx, userID, postID)
		return liked, false, err
	case err != nil:
		return false, false, err
	}
	return true, true, nil
}

func (s *LikeService) resolveConflict(ctx context.Context, userID, postID uint) (bool, error) {
	observability.LikeConflictsResolved.Inc()
	middleware.Logger.DebugContext(ctx, "concurrent like toggle detected, re-reading state",
		slog.Uint64("post_id", uint64(postID)),
		slog.Uint64("user_id", uint64(userID)),
	)
	return s.likeRepo.IsLiked(ctx, userID, postID)
}

// CountLikes returns the number of likes on postID, 0 when there are none.
func (s *LikeService) CountLikes(ctx context.Context, postID uint) (int64, error) {
	if err := validatePostID(postID); err != nil {
		return 0, err
	}
	count, err := s.likeRepo.CountByPost(ctx, postID)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return max(count, 0), nil
}

// HasUserLiked reports whether userID likes postID.
func (s *LikeService) HasUserLiked(ctx context.Context, postID, userID uint) (bool, error) {
	if err := validatePostID(postID); err != nil {
		return false, err
	}
	if err := validateUserID(userID); err != nil {
		return false, err
	}
	liked, err := s.likeRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return liked, nil
}

// Summaries returns one {postId, likeCount, liked} row per distinct requested post, in request
// order. userID 0 is an anonymous viewer and never has liked anything.
func (s *LikeService) Summaries(ctx context.Context, postIDs []uint, userID uint) ([]models.PostLikeSummary, error) {
	ids := make([]uint, 0, len(postIDs))
	seen := make(map[uint]struct{}, len(postIDs))
	for _, id := range postIDs {
		if err := validatePostID(id); err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) > MaxSummaryPosts {
		return nil, models.NewValidationError("Too many post IDs (max 100)")
	}
	if len(ids) == 0 {
		return []models.PostLikeSummary{}, nil
	}

	counts, err := s.likeRepo.CountByPosts(ctx, ids)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	likedSet := make(map[uint]bool)
	if userID != 0 {
		likedIDs, err := s.likeRepo.GetLikedPostIDs(ctx, userID, ids)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		for _, id := range likedIDs {
			likedSet[id] = true
		}
	}

	out := make([]models.PostLikeSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.PostLikeSummary{
			PostID:    id,
			LikeCount: max(counts[id], 0),
			Liked:     likedSet[id],
		})
	}
	return out, nil
}

// ListLikes returns the likes of postID, newest first.
func (s *LikeService) ListLikes(ctx context.Context, postID uint, limit, offset int) ([]models.Like, error) {
	if err := validatePostID(postID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	likes, err := s.likeRepo.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return likes, nil
}

// DebugSnapshot returns the raw contents of the likes table.
func (s *LikeService) DebugSnapshot(ctx context.Context) (*models.LikeTableSnapshot, error) {
	s.logger.LogServiceCall(ctx, "LikeService", "DebugSnapshot", nil)
	snap, err := s.likeRepo.Snapshot(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return snap, nil
}

func validatePostID(postID uint) error {
	if postID == 0 {
		return models.NewValidationError("Invalid post ID")
	}
	return nil
}

func validateUserID(userID uint) error {
	if userID == 0 {
		return models.NewValidationError("Invalid user ID")
	}
	return nil
}
