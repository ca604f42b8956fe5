package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKeyErr reports whether err is a unique constraint violation on any
// of the supported dialects.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	// Only populated when gorm.Config.TranslateError is enabled.
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value violates unique constraint"): // PostgreSQL 23505
		return true
	case strings.Contains(msg, "Error 1062"): // MySQL
		return true
	case strings.Contains(msg, "UNIQUE constraint failed"): // SQLite 2067
		return true
	}
	return false
}
