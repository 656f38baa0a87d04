package service

import (
	"context"
	"errors"
	"testing"

	"antisocial/internal/events"
	"antisocial/internal/models"
	"antisocial/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	isLikedFn         func(context.Context, uint, uint) (bool, error)
	likeFn            func(context.Context, uint, uint) (bool, error)
	unlikeFn          func(context.Context, uint, uint) (bool, error)
	countByPostFn     func(context.Context, uint) (int64, error)
	countByPostsFn    func(context.Context, []uint) (map[uint]int64, error)
	getLikedPostIDsFn func(context.Context, uint, []uint) ([]uint, error)
	listByPostFn      func(context.Context, uint, int, int) ([]models.Like, error)
	snapshotFn        func(context.Context) (*models.LikeTableSnapshot, error)
}

func (s *likeRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *likeRepoStub) Like(ctx context.Context, userID, postID uint) (bool, error) {
	return s.likeFn(ctx, userID, postID)
}
func (s *likeRepoStub) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *likeRepoStub) CountByPost(ctx context.Context, postID uint) (int64, error) {
	return s.countByPostFn(ctx, postID)
}
func (s *likeRepoStub) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	return s.countByPostsFn(ctx, postIDs)
}
func (s *likeRepoStub) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.getLikedPostIDsFn(ctx, userID, postIDs)
}
func (s *likeRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Like, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *likeRepoStub) Snapshot(ctx context.Context) (*models.LikeTableSnapshot, error) {
	return s.snapshotFn(ctx)
}

// untouchableRepo fails the test on any storage access.
func untouchableRepo(t *testing.T) *likeRepoStub {
	fail := func() { t.Helper(); t.Fatal("storage must not be accessed") }
	return &likeRepoStub{
		isLikedFn:         func(context.Context, uint, uint) (bool, error) { fail(); return false, nil },
		likeFn:            func(context.Context, uint, uint) (bool, error) { fail(); return false, nil },
		unlikeFn:          func(context.Context, uint, uint) (bool, error) { fail(); return false, nil },
		countByPostFn:     func(context.Context, uint) (int64, error) { fail(); return 0, nil },
		countByPostsFn:    func(context.Context, []uint) (map[uint]int64, error) { fail(); return nil, nil },
		getLikedPostIDsFn: func(context.Context, uint, []uint) ([]uint, error) { fail(); return nil, nil },
		listByPostFn:      func(context.Context, uint, int, int) ([]models.Like, error) { fail(); return nil, nil },
		snapshotFn:        func(context.Context) (*models.LikeTableSnapshot, error) { fail(); return nil, nil },
	}
}

type recordingPublisher struct {
	events []events.LikeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.LikeEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Name() string { return "recording" }

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func TestLikeService_ValidationHappensBeforeStorage(t *testing.T) {
	svc := NewLikeService(untouchableRepo(t), nil)
	ctx := context.Background()

	_, err := svc.ToggleLike(ctx, 0, 5)
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.ToggleLike(ctx, 1, 0)
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.CountLikes(ctx, 0)
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.HasUserLiked(ctx, 5, 0)
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.Summaries(ctx, []uint{1, 0}, 1)
	assertAppError(t, err, models.CodeValidation)

	tooMany := make([]uint, MaxSummaryPosts+1)
	for i := range tooMany {
		tooMany[i] = uint(i + 1)
	}
	_, err = svc.Summaries(ctx, tooMany, 1)
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.ListLikes(ctx, 0, 10, 0)
	assertAppError(t, err, models.CodeValidation)
}

func TestLikeService_ToggleLikesAbsentPair(t *testing.T) {
	repo := untouchableRepo(t)
	repo.isLikedFn = func(context.Context, uint, uint) (bool, error) { return false, nil }
	repo.likeFn = func(context.Context, uint, uint) (bool, error) { return true, nil }
	repo.countByPostFn = func(context.Context, uint) (int64, error) { return 4, nil }
	pub := &recordingPublisher{}

	res, err := NewLikeService(repo, pub).ToggleLike(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(4), res.LikeCount)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeLikeToggled, pub.events[0].Type)
	assert.Equal(t, uint(5), pub.events[0].PostID)
	assert.True(t, pub.events[0].Liked)
	assert.Equal(t, int64(4), pub.events[0].LikeCount)
}

func TestLikeService_ToggleUnlikesPresentPair(t *testing.T) {
	repo := untouchableRepo(t)
	repo.isLikedFn = func(context.Context, uint, uint) (bool, error) { return true, nil }
	repo.unlikeFn = func(context.Context, uint, uint) (bool, error) { return true, nil }
	repo.countByPostFn = func(context.Context, uint) (int64, error) { return 0, nil }

	res, err := NewLikeService(repo, nil).ToggleLike(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, int64(0), res.LikeCount)
}

func TestLikeService_ToggleResolvesInsertConflict(t *testing.T) {
	tests := []struct {
		name   string
		likeFn func(context.Context, uint, uint) (bool, error)
	}{
		{"conflict error", func(context.Context, uint, uint) (bool, error) {
			return false, repository.ErrLikeConflict
		}},
		{"row already existed", func(context.Context, uint, uint) (bool, error) {
			return false, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reads := 0
			repo := untouchableRepo(t)
			repo.isLikedFn = func(context.Context, uint, uint) (bool, error) {
				reads++
				return reads > 1, nil
			}
			repo.likeFn = tt.likeFn
			repo.countByPostFn = func(context.Context, uint) (int64, error) { return 1, nil }
			pub := &recordingPublisher{}

			res, err := NewLikeService(repo, pub).ToggleLike(context.Background(), 1, 5)
			require.NoError(t, err)
			assert.True(t, res.Liked)
			assert.Equal(t, int64(1), res.LikeCount)
			assert.Equal(t, 2, reads)
			assert.Empty(t, pub.events, "the winning toggle publishes, not the loser")
		})
	}
}

func TestLikeService_ToggleResolvesDeleteRace(t *testing.T) {
	reads := 0
	repo := untouchableRepo(t)
	repo.isLikedFn = func(context.Context, uint, uint) (bool, error) {
		reads++
		return reads == 1, nil
	}
	repo.unlikeFn = func(context.Context, uint, uint) (bool, error) { return false, nil }
	repo.countByPostFn = func(context.Context, uint) (int64, error) { return 0, nil }

	res, err := NewLikeService(repo, nil).ToggleLike(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 2, reads)
}

func TestLikeService_StorageFailureIsInternalAndNotRetried(t *testing.T) {
	boom := errors.New("disk I/O error")
	calls := 0
	repo := untouchableRepo(t)
	repo.isLikedFn = func(context.Context, uint, uint) (bool, error) { return false, nil }
	repo.likeFn = func(context.Context, uint, uint) (bool, error) {
		calls++
		return false, boom
	}

	_, err := NewLikeService(repo, nil).ToggleLike(context.Background(), 1, 5)
	assertAppError(t, err, models.CodeInternal)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestLikeService_PublishFailureDoesNotFailToggle(t *testing.T) {
	repo := untouchableRepo(t)
	repo.isLikedFn = func(context.Context, uint, uint) (bool, error) { return false, nil }
	repo.likeFn = func(context.Context, uint, uint) (bool, error) { return true, nil }
	repo.countByPostFn = func(context.Context, uint) (int64, error) { return 1, nil }
	pub := &recordingPublisher{err: errors.New("redis down")}

	res, err := NewLikeService(repo, pub).ToggleLike(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Len(t, pub.events, 1)
}

func TestLikeService_CountLikesClampsAndWrapsErrors(t *testing.T) {
	repo := untouchableRepo(t)
	repo.countByPostFn = func(context.Context, uint) (int64, error) { return -3, nil }
	svc := NewLikeService(repo, nil)

	count, err := svc.CountLikes(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	repo.countByPostFn = func(context.Context, uint) (int64, error) { return 0, errors.New("timeout") }
	_, err = svc.CountLikes(context.Background(), 5)
	assertAppError(t, err, models.CodeInternal)
}

func TestLikeService_Summaries(t *testing.T) {
	repo := untouchableRepo(t)
	repo.countByPostsFn = func(_ context.Context, ids []uint) (map[uint]int64, error) {
		assert.Equal(t, []uint{3, 1, 2}, ids)
		return map[uint]int64{1: 2, 3: 5}, nil
	}
	repo.getLikedPostIDsFn = func(_ context.Context, userID uint, _ []uint) ([]uint, error) {
		assert.Equal(t, uint(7), userID)
		return []uint{3}, nil
	}
	svc := NewLikeService(repo, nil)

	out, err := svc.Summaries(context.Background(), []uint{3, 1, 3, 2}, 7)
	require.NoError(t, err)
	assert.Equal(t, []models.PostLikeSummary{
		{PostID: 3, LikeCount: 5, Liked: true},
		{PostID: 1, LikeCount: 2, Liked: false},
		{PostID: 2, LikeCount: 0, Liked: false},
	}, out)

	repo.getLikedPostIDsFn = func(context.Context, uint, []uint) ([]uint, error) {
		t.Fatal("anonymous viewers must not query liked posts")
		return nil, nil
	}
	out, err = svc.Summaries(context.Background(), []uint{3, 1, 2}, 0)
	require.NoError(t, err)
	for _, s := range out {
		assert.False(t, s.Liked)
	}

	out, err = svc.Summaries(context.Background(), nil, 7)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestLikeService_ListLikesClampsPaging(t *testing.T) {
	repo := untouchableRepo(t)
	var gotLimit, gotOffset int
	repo.listByPostFn = func(_ context.Context, _ uint, limit, offset int) ([]models.Like, error) {
		gotLimit, gotOffset = limit, offset
		return []models.Like{}, nil
	}
	svc := NewLikeService(repo, nil)

	_, err := svc.ListLikes(context.Background(), 5, 0, -4)
	require.NoError(t, err)
	assert.Equal(t, defaultListLimit, gotLimit)
	assert.Equal(t, 0, gotOffset)

	_, err = svc.ListLikes(context.Background(), 5, 1000, 10)
	require.NoError(t, err)
	assert.Equal(t, maxListLimit, gotLimit)
	assert.Equal(t, 10, gotOffset)
}
