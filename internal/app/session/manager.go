package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
	"github.com/FACorreiaa/go-dogwalks/internal/app/observability/metrics"
)

const (
	contextKey     = "session"
	lookupErrorKey = "session_lookup_error"
)

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	Domain     string
	Path       string
	SameSite   http.SameSite
}

// Manager issues, resolves and revokes cookie-addressed sessions. The TTL is
// absolute: it is fixed at login and never extended by activity.
type Manager struct {
	store  Store
	codec  *securecookie.SecureCookie
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(store Store, secret []byte, opts Options, logger *zap.Logger) *Manager {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}

	codec := securecookie.New(secret, nil)
	codec.MaxAge(int(opts.TTL.Seconds()))

	return &Manager{
		store:  store,
		codec:  codec,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// LoadSession resolves the cookie into a session for every request. A missing,
// forged or expired cookie leaves the request unauthenticated.
func (m *Manager) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := m.resolve(c)
		switch {
		case err != nil:
			c.Set(lookupErrorKey, err)
		case s != nil:
			c.Set(contextKey, s)
		}
		c.Next()
	}
}

func (m *Manager) resolve(c *gin.Context) (*Session, error) {
	raw, err := c.Cookie(m.opts.CookieName)
	if err != nil || raw == "" {
		return nil, nil
	}

	var id string
	if err := m.codec.Decode(m.opts.CookieName, raw, &id); err != nil {
		m.logger.Debug("Rejected session cookie", zap.Error(err))
		return nil, nil
	}

	ctx := c.Request.Context()
	s, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		m.logger.Error("Session store lookup failed", zap.Error(err))
		return nil, err
	}

	if s.Expired(m.now()) {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.Warn("Failed to delete expired session", zap.Error(err))
		} else {
			recordRevoked(c, "expired")
		}
		return nil, nil
	}
	return s, nil
}

// Create starts a new session for user and sets the cookie. Any session the
// request already carries is revoked first, so re-login rotates the id. If the
// carried session could not be resolved, Create fails rather than leave it live.
func (m *Manager) Create(c *gin.Context, user models.SessionUser) (*Session, error) {
	ctx := c.Request.Context()

	if err := lookupError(c); err != nil {
		return nil, fmt.Errorf("resolve previous session: %w", err)
	}
	if prev, ok := Current(c); ok {
		if err := m.store.Delete(ctx, prev.ID); err != nil {
			return nil, fmt.Errorf("revoke previous session: %w", err)
		}
		recordRevoked(c, "rotated")
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		ID:        id,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.TTL),
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	encoded, err := m.codec.Encode(m.opts.CookieName, id)
	if err != nil {
		return nil, fmt.Errorf("encode session cookie: %w", err)
	}

	m.setCookie(c, encoded, int(m.opts.TTL.Seconds()), s.ExpiresAt)
	c.Set(contextKey, s)
	metrics.Get().SessionsCreated.Add(ctx, 1)
	return s, nil
}

// Destroy revokes the current session. The cookie is only cleared once the
// store delete succeeded; a cookie whose lookup failed is left untouched since
// its session may still be live.
func (m *Manager) Destroy(c *gin.Context) error {
	if err := lookupError(c); err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	if s, ok := Current(c); ok {
		if err := m.store.Delete(c.Request.Context(), s.ID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		recordRevoked(c, "logout")
	}

	m.setCookie(c, "", -1, time.Unix(0, 0))
	c.Set(contextKey, nil)
	return nil
}

func (m *Manager) setCookie(c *gin.Context, value string, maxAge int, expires time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     m.opts.Path,
		Domain:   m.opts.Domain,
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		Secure:   m.opts.Secure,
		HttpOnly: true,
		SameSite: m.opts.SameSite,
	})
}

// Current returns the session resolved for this request, if any.
func Current(c *gin.Context) (*Session, bool) {
	v, exists := c.Get(contextKey)
	if !exists {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok && s != nil
}

// CurrentUser returns the identity snapshot of the current session.
func CurrentUser(c *gin.Context) (models.SessionUser, bool) {
	s, ok := Current(c)
	if !ok {
		return models.SessionUser{}, false
	}
	return s.User, true
}

func recordRevoked(c *gin.Context, reason string) {
	metrics.Get().SessionsRevoked.Add(c.Request.Context(), 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

func lookupError(c *gin.Context) error {
	v, exists := c.Get(lookupErrorKey)
	if !exists {
		return nil
	}
	err, _ := v.(error)
	return err
}
