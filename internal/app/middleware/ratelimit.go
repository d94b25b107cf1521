package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LoginLimiter throttles credential checks per client IP with a token bucket.
// Idle buckets are evicted by the cache.
type LoginLimiter struct {
	limiters *cache.Cache
	mu       sync.Mutex
	every    rate.Limit
	burst    int
	logger   *zap.Logger
}

func NewLoginLimiter(perMinute, burst int, logger *zap.Logger) *LoginLimiter {
	return &LoginLimiter{
		limiters: cache.New(10*time.Minute, 5*time.Minute),
		every:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		logger:   logger,
	}
}

func (l *LoginLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.limiters.Get(key); ok {
		lim := v.(*rate.Limiter)
		l.limiters.SetDefault(key, lim)
		return lim
	}
	lim := rate.NewLimiter(l.every, l.burst)
	l.limiters.SetDefault(key, lim)
	return lim
}

// Allow reports whether the client identified by key may attempt a login now.
func (l *LoginLimiter) Allow(key string) bool {
	return l.limiter(key).Allow()
}

func (l *LoginLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			l.logger.Warn("Login rate limit exceeded", zap.String("client_ip", ip))
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts"})
			return
		}
		c.Next()
	}
}
