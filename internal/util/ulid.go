package util

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string, used for session tokens.
func New() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.Reader, 0)

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewSlug generates a short lowercase identifier for kudo permalinks.
// Collisions are caught by the UNIQUE constraint on the slug column.
func NewSlug() string {
	id := New()
	return strings.ToLower(id[len(id)-10:])
}
