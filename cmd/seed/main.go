// Command main fills the likes table with fake data.
package main

import (
	"context"
	"flag"
	"log"

	"antisocial/internal/cache"
	"antisocial/internal/config"
	"antisocial/internal/database"
	"antisocial/internal/repository"
	"antisocial/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users that like posts")
	numPosts := flag.Int("posts", 200, "Number of posts to like")
	density := flag.Float64("density", 0.1, "Probability that a user likes a post")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one from the clock)")
	shouldClean := flag.Bool("clean", false, "Delete existing likes before seeding")
	hot := flag.Bool("hot", false, "Skew likes towards low post ids")
	flag.Parse()

	log.Println("🌱 Like Seeder")
	log.Println("==============")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Writes go through the repository so cached counts are invalidated.
	rdb := cache.InitRedis(cfg.RedisURL)
	likes := repository.NewLikeRepository(db, cache.NewStore(rdb), cfg.LikeCountCacheTTL())

	res, err := seed.NewSeeder(db, likes).Seed(context.Background(), seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		Density:     *density,
		Seed:        *seedValue,
		ShouldClean: *shouldClean,
		Hot:         *hot,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d likes created, %d skipped as duplicates.", res.Created, res.Existing)
}
