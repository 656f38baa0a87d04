package server

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"antisocial/internal/models"
	"antisocial/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
// The error message is derived from the parameter name (e.g. "postId" -> "Invalid post ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := parsePositiveID(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return id, nil
}

// parseQueryID is parseID for a required query parameter.
func (s *Server) parseQueryID(c *fiber.Ctx, param string) (uint, error) {
	raw := c.Query(param)
	if strings.TrimSpace(raw) == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(param+" is required"))
		return 0, errResponseWritten
	}
	id, err := parsePositiveID(raw)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return id, nil
}

// parsePositiveID accepts decimal digits only; "12abc", "-3", "1.5", "0" and values above
// math.MaxInt64 are rejected.
func parsePositiveID(raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, validation.IDBitSize)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("id must be positive")
	}
	return uint(n), nil
}

// parseIDList parses a comma-separated id list such as "1,2,3". Empty entries are skipped.
func parseIDList(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parsePositiveID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// respondError writes err with the status its AppError code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "postIds" -> "post IDs".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	for _, suffix := range []string{"Id", "Ids"} {
		if prefix, ok := strings.CutSuffix(param, suffix); ok && prefix != "" {
			words := splitCamel(prefix)
			return strings.ToLower(strings.Join(words, " ")) + " " + strings.ToUpper(suffix[:2]) + suffix[2:]
		}
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

