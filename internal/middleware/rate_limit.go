package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused per-key limiter is kept.
const limiterIdleTTL = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter holds one token bucket per key (client IP or user id).
type KeyedRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*keyedLimiter
	r         rate.Limit
	b         int
	now       func() time.Time
	lastSweep time.Time
}

func NewKeyedRateLimiter(r rate.Limit, b int) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*keyedLimiter),
		r:        r,
		b:        b,
		now:      time.Now,
	}
}

// Reserve takes a token for key. It returns zero when the request may
// proceed, or how long the caller should wait before retrying.
func (l *KeyedRateLimiter) Reserve(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	kl, ok := l.limiters[key]
	if !ok {
		kl = &keyedLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.limiters[key] = kl
	}
	kl.lastSeen = now

	if kl.limiter.AllowN(now, 1) {
		return 0
	}
	res := kl.limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Duration(math.MaxInt64)
	}
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return wait
}

// Len reports how many keys are tracked.
func (l *KeyedRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *KeyedRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < limiterIdleTTL {
		return
	}
	l.lastSweep = now
	for k, kl := range l.limiters {
		if now.Sub(kl.lastSeen) >= limiterIdleTTL {
			delete(l.limiters, k)
		}
	}
}

func limitBy(l *KeyedRateLimiter, key func(*gin.Context) string, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}
		if wait := l.Reserve(k); wait > 0 {
			secs := int64(math.Ceil(wait.Seconds()))
			if wait >= time.Duration(math.MaxInt64) {
				secs = 60
			}
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			response.Error(c, http.StatusTooManyRequests, apperror.CodeRateLimited, message, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func RateLimitByIP(r rate.Limit, b int) gin.HandlerFunc {
	return limitBy(NewKeyedRateLimiter(r, b), (*gin.Context).ClientIP, "Too many requests from this IP")
}

// RateLimitByUser passes unauthenticated requests through untouched.
func RateLimitByUser(r rate.Limit, b int) gin.HandlerFunc {
	return limitBy(NewKeyedRateLimiter(r, b), func(c *gin.Context) string {
		return c.GetString("user_id")
	}, "Too many requests from this user")
}
