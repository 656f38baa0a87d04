package cache

import (
	"fmt"
	"time"
)

// LikeCountKeyPrefix formats the cache key of a post's like count.
const LikeCountKeyPrefix = "likes:post:%d:count"

// LikeCountTTL is the default lifetime of a cached like count.
const LikeCountTTL = 30 * time.Second

// LikeCountKey returns the cache key for postID's like count.
func LikeCountKey(postID uint) string {
	return fmt.Sprintf(LikeCountKeyPrefix, postID)
}
