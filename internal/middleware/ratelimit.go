package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
)

const idleLimiterTTL = 10 * time.Minute

// RateLimiter hands out one token bucket per client IP. Buckets of clients
// that stay idle are evicted by the cache janitor.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	message string
	clients *cache.Cache
}

func NewRateLimiter(perSecond float64, burst int, message string) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		message: message,
		clients: cache.New(idleLimiterTTL, idleLimiterTTL),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.clients.Get(key); ok {
		l := v.(*rate.Limiter)
		rl.clients.SetDefault(key, l)
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.clients.Add(key, l, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := rl.clients.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			httputil.RespondWithFailure(c, http.StatusTooManyRequests, rl.message)
			return
		}
		c.Next()
	}
}
