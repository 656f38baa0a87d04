package repository

import (
	"context"
	"fmt"
	"time"

	"antisocial/internal/cache"
	"antisocial/internal/models"
	"antisocial/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const snapshotRowLimit = 500

// LikeRepository defines persistence for (user, post) likes.
type LikeRepository interface {
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	// Like inserts the pair. created is false when the pair already existed.
	Like(ctx context.Context, userID, postID uint) (created bool, err error)
	// Unlike deletes the pair. removed is false when there was nothing to delete.
	Unlike(ctx context.Context, userID, postID uint) (removed bool, err error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Like, error)
	Snapshot(ctx context.Context) (*models.LikeTableSnapshot, error)
}

type likeRepository struct {
	db       *gorm.DB
	cache    *cache.Store
	countTTL time.Duration
	logger   *observability.RepoLogger
}

// NewLikeRepository creates a new LikeRepository. store may be nil to disable count caching.
func NewLikeRepository(db *gorm.DB, store *cache.Store, countTTL time.Duration) LikeRepository {
	if countTTL <= 0 {
		countTTL = cache.LikeCountTTL
	}
	return &likeRepository{
		db:       db,
		cache:    store,
		countTTL: countTTL,
		logger:   observability.NewRepoLogger("likes"),
	}
}

func (r *likeRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	defer observability.TrackQuery("select", "likes")()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		r.logger.LogError(ctx, err, "is_liked")
		return false, fmt.Errorf("check like: %w", err)
	}
	return count > 0, nil
}

func (r *likeRepository) Like(ctx context.Context, userID, postID uint) (bool, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Like", "likes", r.db.Dialector.Name())
	defer span.End()
	defer observability.TrackQuery("insert", "likes")()

	like := models.Like{UserID: userID, PostID: postID, CreatedAt: time.Now().UTC()}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	if err := result.Error; err != nil {
		if isUniqueConstraintError(err) {
			r.logger.LogConflict(ctx, map[string]interface{}{"user_id": userID, "post_id": postID})
			return false, fmt.Errorf("%w: %v", ErrLikeConflict, err)
		}
		span.RecordError(err)
		r.logger.LogError(ctx, err, "create")
		return false, fmt.Errorf("create like: %w", err)
	}

	if result.RowsAffected == 0 {
		r.logger.LogConflict(ctx, map[string]interface{}{"user_id": userID, "post_id": postID})
		return false, nil
	}

	r.cache.Invalidate(ctx, cache.LikeCountKey(postID))
	r.logger.LogCreate(ctx, map[string]interface{}{"id": like.ID, "user_id": userID, "post_id": postID})
	return true, nil
}

func (r *likeRepository) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Unlike", "likes", r.db.Dialector.Name())
	defer span.End()
	defer observability.TrackQuery("delete", "likes")()

	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if err := result.Error; err != nil {
		span.RecordError(err)
		r.logger.LogError(ctx, err, "delete")
		return false, fmt.Errorf("delete like: %w", err)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	r.cache.Invalidate(ctx, cache.LikeCountKey(postID))
	r.logger.LogDelete(ctx, map[string]interface{}{"user_id": userID, "post_id": postID})
	return true, nil
}

func (r *likeRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.cache.Aside(ctx, cache.LikeCountKey(postID), &count, r.countTTL, func() error {
		defer observability.TrackQuery("count", "likes")()
		return r.db.WithContext(ctx).
			Model(&models.Like{}).
			Where("post_id = ?", postID).
			Count(&count).Error
	})
	if err != nil {
		r.logger.LogError(ctx, err, "count")
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func (r *likeRepository) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	defer observability.TrackQuery("count_grouped", "likes")()

	var rows []struct {
		PostID    uint
		LikeCount int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Select("post_id, COUNT(*) AS like_count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		r.logger.LogError(ctx, err, "count_grouped")
		return nil, fmt.Errorf("count likes by post: %w", err)
	}

	for _, row := range rows {
		counts[row.PostID] = row.LikeCount
	}
	return counts, nil
}

func (r *likeRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if userID == 0 || len(postIDs) == 0 {
		return []uint{}, nil
	}
	defer observability.TrackQuery("select", "likes")()

	var liked []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	if err != nil {
		r.logger.LogError(ctx, err, "liked_post_ids")
		return nil, fmt.Errorf("get liked post ids: %w", err)
	}
	return liked, nil
}

func (r *likeRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]models.Like, error) {
	defer observability.TrackQuery("select", "likes")()

	var likes []models.Like
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&likes).Error
	if err != nil {
		r.logger.LogError(ctx, err, "list")
		return nil, fmt.Errorf("list likes: %w", err)
	}
	return likes, nil
}

func (r *likeRepository) Snapshot(ctx context.Context) (*models.LikeTableSnapshot, error) {
	db := r.db.WithContext(ctx)
	snapshot := &models.LikeTableSnapshot{
		Columns: []models.LikeColumn{},
		Rows:    []models.Like{},
	}

	if !db.Migrator().HasTable(&models.Like{}) {
		return snapshot, nil
	}
	snapshot.TableExists = true

	columnTypes, err := db.Migrator().ColumnTypes(&models.Like{})
	if err != nil {
		return nil, fmt.Errorf("read like columns: %w", err)
	}
	for _, ct := range columnTypes {
		nullable, _ := ct.Nullable()
		primaryKey, _ := ct.PrimaryKey()
		snapshot.Columns = append(snapshot.Columns, models.LikeColumn{
			Name:       ct.Name(),
			Type:       ct.DatabaseTypeName(),
			Nullable:   nullable,
			PrimaryKey: primaryKey,
		})
	}

	if err := db.Order("id ASC").Limit(snapshotRowLimit).Find(&snapshot.Rows).Error; err != nil {
		return nil, fmt.Errorf("read like rows: %w", err)
	}
	return snapshot, nil
}
