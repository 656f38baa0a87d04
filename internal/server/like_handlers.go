package server

import (
	"encoding/json"
	"strconv"

	"antisocial/internal/featureflags"
	"antisocial/internal/models"
	"antisocial/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// toggleLikeRequest is the body of POST /likes/posts/{postId}.
type toggleLikeRequest struct {
	UserID validation.NumericID `json:"userId" validate:"required,gt=0"`
}

// listLikesQuery holds paging for GET /likes/posts/{postId}/users.
type listLikesQuery struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// parseToggleBody decodes and validates a toggle body. On failure it writes a 400 JSON
// response and returns errResponseWritten.
func parseToggleBody(c *fiber.Ctx) (uint, error) {
	body := c.Body()
	var req toggleLikeRequest
	if len(body) > 0 {
		if !json.Valid(body) {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
			return 0, errResponseWritten
		}
		if err := json.Unmarshal(body, &req); err != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid user ID"))
			return 0, errResponseWritten
		}
	}
	if err := validation.Struct(req); err != nil {
		_ = respondError(c, err)
		return 0, errResponseWritten
	}
	return uint(req.UserID), nil
}

// toggleRateKey keys the toggle rate limit by the user in the body, falling back to the IP
// when the body does not name one.
func toggleRateKey(c *fiber.Ctx) string {
	var req toggleLikeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil || req.UserID == 0 {
		return ""
	}
	return "user:" + strconv.FormatUint(uint64(req.UserID), 10)
}

// ToggleLike handles POST /likes/posts/:postId
// @Summary Toggle a like
// @Description Likes the post for the user if not already liked, otherwise removes the like. Returns the resulting state.
// @Tags likes
// @Accept json
// @Produce json
// @Param postId path int true "Post ID"
// @Param request body toggleLikeRequest true "User toggling the like"
// @Success 200 {object} models.LikeToggleResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /likes/posts/{postId} [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}
	userID, err := parseToggleBody(c)
	if err != nil {
		return nil
	}

	result, err := s.likeService.ToggleLike(c.UserContext(), userID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetLikeCount handles GET /likes/posts/:postId/count
// @Summary Count likes
// @Description Returns the number of likes on a post. A post nobody liked reports 0.
// @Tags likes
// @Produce json
// @Param postId path int true "Post ID"
// @Success 200 {object} models.LikeCountResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /likes/posts/{postId}/count [get]
func (s *Server) GetLikeCount(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	count, err := s.likeService.CountLikes(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.LikeCountResponse{LikeCount: count})
}

// CheckLike handles GET /likes/posts/:postId/check?userId=
// @Summary Check a like
// @Description Reports whether the user currently likes the post.
// @Tags likes
// @Produce json
// @Param postId path int true "Post ID"
// @Param userId query int true "User ID"
// @Success 200 {object} models.LikeCheckResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /likes/posts/{postId}/check [get]
func (s *Server) CheckLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}
	userID, err := s.parseQueryID(c, "userId")
	if err != nil {
		return nil
	}

	liked, err := s.likeService.HasUserLiked(c.UserContext(), postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.LikeCheckResponse{Liked: liked})
}

// GetPostLikes handles GET /likes/posts/:postId/users
// @Summary List likes of a post
// @Description Lists like rows for a post, newest first.
// @Tags likes
// @Produce json
// @Param postId path int true "Post ID"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Like
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /likes/posts/{postId}/users [get]
func (s *Server) GetPostLikes(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	var q listLikesQuery
	if err := c.QueryParser(&q); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid pagination parameters"))
	}
	if err := validation.Struct(q); err != nil {
		return respondError(c, err)
	}

	likes, err := s.likeService.ListLikes(c.UserContext(), postID, q.Limit, q.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(likes)
}

// GetLikeSummaries handles GET /likes/posts?postIds=&userId=
// @Summary Batch like summaries
// @Description Returns count and liked state for up to 100 posts in the order requested. Without userId every post reports liked=false.
// @Tags likes
// @Produce json
// @Param postIds query string true "Comma-separated post IDs"
// @Param userId query int false "Viewer user ID"
// @Success 200 {array} models.PostLikeSummary
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /likes/posts [get]
func (s *Server) GetLikeSummaries(c *fiber.Ctx) error {
	postIDs, err := parseIDList(c.Query("postIds"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam("postIds")))
	}

	var userID uint
	if c.Query("userId") != "" {
		if userID, err = s.parseQueryID(c, "userId"); err != nil {
			return nil
		}
	}

	summaries, err := s.likeService.Summaries(c.UserContext(), postIDs, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries)
}

// GetLikesDebugTable handles GET /likes/debug/table
// @Summary Inspect the likes table
// @Description Returns table existence, column metadata and rows. Available only when the likes_debug flag is on outside production.
// @Tags likes
// @Produce json
// @Success 200 {object} models.LikeTableSnapshot
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /likes/debug/table [get]
func (s *Server) GetLikesDebugTable(c *fiber.Ctx) error {
	if s.config.IsProduction() || !s.featureFlags.Enabled(featureflags.LikesDebug, 0) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Route", c.Path()))
	}

	snapshot, err := s.likeService.DebugSnapshot(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snapshot)
}
