package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/example/vital/internal/config"
)

// clientIdleTTL is how long a client bucket is kept after its last request.
const clientIdleTTL = 10 * time.Minute

type clientBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// clientLimiter keeps one token bucket per client IP. Idle buckets are
// pruned on access, at most once per clientIdleTTL.
type clientLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	buckets  map[string]*clientBucket
	prunedAt time.Time
	now      func() time.Time
}

func newClientLimiter(cfg config.RateLimit) *clientLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &clientLimiter{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   burst,
		buckets: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (l *clientLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.prunedAt) >= clientIdleTTL {
		for key, b := range l.buckets {
			if now.Sub(b.seen) >= clientIdleTTL {
				delete(l.buckets, key)
			}
		}
		l.prunedAt = now
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}

// middleware rejects requests over the client's budget with 429.
func (l *clientLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, APIError{
			Error: "Too many escalation requests, try again later",
			Code:  "RATE_LIMITED",
		})
	}
}
