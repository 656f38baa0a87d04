// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"antisocial/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	NumPosts int
	// Density is the probability in [0,1] that a given user likes a given post.
	Density     float64
	Seed        int64
	ShouldClean bool
	// Hot makes low post ids proportionally more popular, like a real feed.
	Hot bool
}

// Result summarises a seeding run.
type Result struct {
	Created  int
	Existing int
}

// Seeder writes fake likes through the like repository, so the uniqueness invariant holds
// even when seeding into a populated table.
type Seeder struct {
	db    *gorm.DB
	likes repository.LikeRepository
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, likes repository.LikeRepository) *Seeder {
	return &Seeder{db: db, likes: likes}
}

func (o Options) validate() error {
	if o.NumUsers <= 0 || o.NumPosts <= 0 {
		return errors.New("users and posts must be positive")
	}
	if o.Density < 0 || o.Density > 1 {
		return fmt.Errorf("density %.2f outside [0,1]", o.Density)
	}
	return nil
}

// ClearLikes deletes every row of the likes table.
func (s *Seeder) ClearLikes(ctx context.Context) error {
	res := s.db.WithContext(ctx).Exec("DELETE FROM likes")
	if res.Error != nil {
		return fmt.Errorf("clear likes: %w", res.Error)
	}
	log.Printf("🧹 Removed %d likes", res.RowsAffected)
	return nil
}

// Seed creates likes for users 1..NumUsers over posts 1..NumPosts. The same Seed value
// produces the same set of pairs.
func (s *Seeder) Seed(ctx context.Context, opts Options) (Result, error) {
	var res Result
	if err := opts.validate(); err != nil {
		return res, err
	}

	if opts.ShouldClean {
		if err := s.ClearLikes(ctx); err != nil {
			return res, err
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)

	log.Printf("🌱 Seeding likes: %d users x %d posts, density %.2f, seed %d",
		opts.NumUsers, opts.NumPosts, opts.Density, seed)

	for userID := 1; userID <= opts.NumUsers; userID++ {
		for postID := 1; postID <= opts.NumPosts; postID++ {
			if faker.Float64Range(0, 1) >= likeProbability(opts, postID) {
				continue
			}
			created, err := s.likes.Like(ctx, uint(userID), uint(postID))
			if err != nil && !errors.Is(err, repository.ErrLikeConflict) {
				return res, fmt.Errorf("like post %d as user %d: %w", postID, userID, err)
			}
			if created {
				res.Created++
			} else {
				res.Existing++
			}
		}
	}

	log.Printf("✓ %d likes created, %d already present", res.Created, res.Existing)
	return res, nil
}

// likeProbability scales density so that, with Hot set, post 1 gets twice the base rate and
// the last post about half of it.
func likeProbability(opts Options, postID int) float64 {
	if !opts.Hot || opts.NumPosts == 1 {
		return opts.Density
	}
	pos := float64(postID-1) / float64(opts.NumPosts-1)
	return min(opts.Density*(2-1.5*pos), 1)
}
