package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/forgecommerce/storefront/internal/metrics"
)

// bucket is the token bucket of a single client IP.
type bucket struct {
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// exemptPaths are never rate limited (probes and scrapes).
var exemptPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// staleAfter is how long a bucket may sit idle before the sweeper drops it.
const staleAfter = 10 * time.Minute

// RateLimiter limits requests per client IP with a token bucket.
type RateLimiter struct {
	buckets  sync.Map // map[string]*bucket
	rate     float64  // tokens added per second
	burst    int      // bucket capacity
	done     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter allowing rate requests per second per IP
// with bursts of up to burst requests, and starts its sweeper. Call Stop
// when the server shuts down.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	l := &RateLimiter{
		rate:  rate,
		burst: burst,
		done:  make(chan struct{}),
	}
	go l.sweep(5 * time.Minute)
	return l
}

// Stop ends the sweeper goroutine. It is safe to call more than once.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Handler wraps next with the limiter.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exemptPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		allowed, remaining, retryAfter := l.allow(ip, time.Now())

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			metrics.RateLimitedTotal.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow refills the bucket of ip up to now and tries to take one token.
// It returns whether the request may pass, the whole tokens left, and the
// seconds until the next token when it may not.
func (l *RateLimiter) allow(ip string, now time.Time) (bool, int, int) {
	val, _ := l.buckets.LoadOrStore(ip, &bucket{
		tokens:     float64(l.burst),
		lastRefill: now,
	})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = math.Min(float64(l.burst), b.tokens+elapsed*l.rate)
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, int(math.Floor(b.tokens)), 0
	}

	retry := int(math.Ceil((1 - b.tokens) / l.rate))
	if retry < 1 {
		retry = 1
	}
	return false, 0, retry
}

func (l *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			l.removeStale(now)
		case <-l.done:
			return
		}
	}
}

// removeStale drops buckets idle since before now-staleAfter.
func (l *RateLimiter) removeStale(now time.Time) {
	threshold := now.Add(-staleAfter)
	l.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		stale := b.lastRefill.Before(threshold)
		b.mu.Unlock()
		if stale {
			l.buckets.Delete(key)
		}
		return true
	})
}

// clientIP prefers the leftmost X-Forwarded-For entry, then X-Real-IP, then
// the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
