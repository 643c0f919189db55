package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"astronomy-explorer/models"
)

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// rateLimit ограничивает частоту запросов с одного IP, чтобы прокси не
// исчерпал квоту API за чужой счет. rps <= 0 отключает ограничение.
func rateLimit(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiters := newIPLimiters(rate.Limit(rps), burst, 10*time.Minute)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if limiters.allow(ip, time.Now()) {
			c.Next()
			return
		}
		logger.Warn("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ProxyResponse{Error: "слишком много запросов, попробуйте позже"})
	}
}

type ipLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiters(limit rate.Limit, burst int, ttl time.Duration) *ipLimiters {
	return &ipLimiters{
		limit:    limit,
		burst:    burst,
		ttl:      ttl,
		visitors: make(map[string]*visitor),
	}
}

func (l *ipLimiters) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	for key, other := range l.visitors {
		if now.Sub(other.lastSeen) > l.ttl {
			delete(l.visitors, key)
		}
	}
	return v.limiter.AllowN(now, 1)
}
