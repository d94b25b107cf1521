// Package session keeps authenticated identities server-side, addressed by an
// opaque signed cookie.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
)

// ErrNotFound is returned by stores for unknown, deleted or expired ids.
var ErrNotFound = errors.New("session not found")

const idEntropyBytes = 32

type Session struct {
	ID        string             `json:"id"`
	User      models.SessionUser `json:"user"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions. Implementations must be safe for concurrent use and
// must never return a session after Delete has returned for its id.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// Reaper is implemented by stores that need expired entries purged explicitly.
type Reaper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func newID() (string, error) {
	raw := securecookie.GenerateRandomKey(idEntropyBytes)
	if raw == nil {
		return "", errors.New("session: failed to read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
