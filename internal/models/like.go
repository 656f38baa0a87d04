// Package models defines the persisted entities and API payloads of the like service.
package models

import "time"

// Like records that a user endorses a post. Presence is the only state.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post,priority:1" json:"userId"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post,priority:2;index:idx_likes_post_id" json:"postId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string {
	return "likes"
}

// LikeToggleResult is the outcome of a toggle: the pair's state after the call.
type LikeToggleResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// LikeCountResponse is returned by the count endpoint.
type LikeCountResponse struct {
	LikeCount int64 `json:"likeCount"`
}

// LikeCheckResponse is returned by the check endpoint.
type LikeCheckResponse struct {
	Liked bool `json:"liked"`
}

// PostLikeSummary is the per-post row merged into post view-models.
type PostLikeSummary struct {
	PostID    uint  `json:"postId"`
	LikeCount int64 `json:"likeCount"`
	Liked     bool  `json:"liked"`
}

// LikeColumn describes one column of the likes table.
type LikeColumn struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey"`
}

// LikeTableSnapshot is the debug view of the likes table.
type LikeTableSnapshot struct {
	TableExists bool         `json:"tableExists"`
	Columns     []LikeColumn `json:"columns"`
	Rows        []Like       `json:"rows"`
}
