package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLimiter caps requests per client address over a sliding window.
// Report submission is the expensive path here: one request fans out into a
// range query, a batch alert write and a push per recipient, so a burst from
// a single address multiplies across every user in range.
type RequestLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
}

func NewRequestLimiter(limit int, window time.Duration) *RequestLimiter {
	l := &RequestLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go l.janitor()
	return l
}

// Allow records a hit for key and reports whether it is within budget.
// Hits are appended in time order, so expiring the stale prefix is a scan
// from the front rather than a rebuild.
func (l *RequestLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	hits := expire(l.hits[key], now.Add(-l.window))
	if len(hits) >= l.limit {
		l.hits[key] = hits
		return false
	}
	l.hits[key] = append(hits, now)
	return true
}

// expire drops the prefix of hits at or before cutoff.
func expire(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// janitor evicts addresses that went quiet so one-off clients do not
// accumulate in the map forever.
func (l *RequestLimiter) janitor() {
	for range time.Tick(time.Minute) {
		l.mu.Lock()
		cutoff := time.Now().Add(-l.window)
		for key, hits := range l.hits {
			live := expire(hits, cutoff)
			if len(live) == 0 {
				delete(l.hits, key)
			} else {
				l.hits[key] = live
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit rejects requests over the per-IP budget with 429.
func RateLimit(l *RequestLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
