// Package repository implements persistence for likes on top of GORM.
package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrLikeConflict reports that an insert lost a race against a concurrent insert of the
// same (user, post) pair and the store rejected it.
var ErrLikeConflict = errors.New("like already exists for user and post")

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505, SQLite "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
