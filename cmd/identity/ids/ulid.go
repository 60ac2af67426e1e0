// Package ids provides ULID identifiers used for request correlation and
// throwaway test schemas.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID returns a new ULID string (26 chars) for now, or for the current
// time when now is zero.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewRequestID returns a ULID for an inbound request. It never fails: if the
// entropy source errors, it falls back to the process-wide monotonic generator.
func NewRequestID() string {
	if id, err := NewULID(time.Time{}); err == nil {
		return id
	}
	return ulid.Make().String()
}

// Valid reports whether s parses as a ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
