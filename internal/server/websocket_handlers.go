package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"antisocial/internal/featureflags"
	"antisocial/internal/middleware"
	"antisocial/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// likeStreamCtxLocal carries the request context across the websocket upgrade so the stream
// logs and queries with the request, trace and correlation ids.
const likeStreamCtxLocal = "likeStreamCtx"

// likeCountSnapshot is the first frame a client following a single post receives.
type likeCountSnapshot struct {
	Type      string `json:"type"`
	PostID    uint   `json:"postId"`
	LikeCount int64  `json:"likeCount"`
}

// LikeStreamUpgrade validates a /ws/likes request before the websocket handshake.
// postId is optional; without it the client follows every post.
func (s *Server) LikeStreamUpgrade(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.LikesRealtime, 0) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Route", c.Path()))
	}

	var postID uint
	if c.Query("postId") != "" {
		id, err := s.parseQueryID(c, "postId")
		if err != nil {
			return nil
		}
		postID = id
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	c.Locals("postID", postID)
	c.Locals(likeStreamCtxLocal, context.WithoutCancel(c.UserContext()))
	return c.Next()
}

// LikeStreamHandler streams like_toggled events to the connected client.
// @Summary Like event stream
// @Description Websocket stream of like_toggled events for one post, or every post when postId is omitted.
// @Tags likes
// @Param postId query int false "Post ID to follow"
// @Success 101
// @Failure 400 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /ws/likes [get]
func (s *Server) LikeStreamHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		postID, _ := conn.Locals("postID").(uint)
		ctx, ok := conn.Locals(likeStreamCtxLocal).(context.Context)
		if !ok {
			ctx = context.Background()
		}

		client, err := s.likeHub.Register(postID, conn)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "like stream rejected",
				slog.Uint64("post_id", uint64(postID)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		if postID != 0 {
			s.sendCountSnapshot(ctx, client.Send, postID)
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func (s *Server) sendCountSnapshot(ctx context.Context, send chan<- []byte, postID uint) {
	count, err := s.likeService.CountLikes(ctx, postID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "like stream snapshot failed",
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()),
		)
		return
	}
	payload, err := json.Marshal(likeCountSnapshot{Type: "like_count", PostID: postID, LikeCount: count})
	if err != nil {
		return
	}
	select {
	case send <- payload:
	default:
	}
}
