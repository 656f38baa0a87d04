package seed

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"antisocial/internal/config"
	"antisocial/internal/database"
	"antisocial/internal/models"
	"antisocial/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func setupSeeder(t *testing.T) (*gorm.DB, *Seeder) {
	t.Helper()
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     config.DriverSQLite,
		DBPath:       fmt.Sprintf("file:seed_test_%d?mode=memory&cache=shared", dbSeq.Add(1)),
		DBSchemaMode: database.SchemaModeSQL,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db, NewSeeder(db, repository.NewLikeRepository(db, nil, time.Minute))
}

func pairs(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var likes []models.Like
	require.NoError(t, db.Order("user_id, post_id").Find(&likes).Error)
	out := make([]string, 0, len(likes))
	for _, l := range likes {
		out = append(out, fmt.Sprintf("%d:%d", l.UserID, l.PostID))
	}
	return out
}

func TestSeed_DeterministicForSeed(t *testing.T) {
	opts := Options{NumUsers: 10, NumPosts: 20, Density: 0.3, Seed: 42}

	dbA, a := setupSeeder(t)
	resA, err := a.Seed(context.Background(), opts)
	require.NoError(t, err)

	dbB, b := setupSeeder(t)
	resB, err := b.Seed(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, resA, resB)
	assert.Equal(t, pairs(t, dbA), pairs(t, dbB))
	assert.Positive(t, resA.Created)
	assert.Zero(t, resA.Existing)
}

func TestSeed_RerunRespectsUniqueness(t *testing.T) {
	db, s := setupSeeder(t)
	opts := Options{NumUsers: 5, NumPosts: 5, Density: 1, Seed: 7}

	first, err := s.Seed(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 25, first.Created)

	second, err := s.Seed(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 25, second.Existing)
	assert.Len(t, pairs(t, db), 25)

	opts.ShouldClean = true
	opts.Density = 0
	third, err := s.Seed(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, Result{}, third)
	assert.Empty(t, pairs(t, db))
}

func TestSeed_DensityControlsLikeShare(t *testing.T) {
	db, s := setupSeeder(t)
	opts := Options{NumUsers: 20, NumPosts: 20, Density: 0.5, Seed: 3}

	res, err := s.Seed(context.Background(), opts)
	require.NoError(t, err)

	// 400 pairs at p=0.5 land far inside these bounds for any seed.
	assert.Greater(t, res.Created, 120)
	assert.Less(t, res.Created, 280)
	assert.Len(t, pairs(t, db), res.Created)
}

func TestSeed_RejectsBadOptions(t *testing.T) {
	_, s := setupSeeder(t)
	_, err := s.Seed(context.Background(), Options{NumUsers: 0, NumPosts: 1, Density: 0.5})
	assert.Error(t, err)
	_, err = s.Seed(context.Background(), Options{NumUsers: 1, NumPosts: 1, Density: 1.5})
	assert.Error(t, err)
}

func TestLikeProbability(t *testing.T) {
	t.Parallel()
	flat := Options{NumPosts: 10, Density: 0.4}
	assert.InDelta(t, 0.4, likeProbability(flat, 1), 1e-9)
	assert.InDelta(t, 0.4, likeProbability(flat, 10), 1e-9)

	hot := Options{NumPosts: 11, Density: 0.4, Hot: true}
	assert.InDelta(t, 0.8, likeProbability(hot, 1), 1e-9)
	assert.InDelta(t, 0.2, likeProbability(hot, 11), 1e-9)

	capped := Options{NumPosts: 2, Density: 0.9, Hot: true}
	assert.InDelta(t, 1.0, likeProbability(capped, 1), 1e-9)
}
