package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jhigh13/podium-data/internal/api/respond"
)

// TimingMiddleware reports server-side processing time in the
// X-Process-Time response header.
func TimingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &timingWriter{ResponseWriter: w, start: time.Now()}
		next.ServeHTTP(sw, r)
	})
}

type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (w *timingWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.4f", time.Since(w.start).Seconds()))
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *timingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// RateLimitMiddleware applies a per-client-IP token bucket. Stale
// limiter entries are evicted lazily on a fixed interval.
func RateLimitMiddleware(requests int, window time.Duration) func(http.Handler) http.Handler {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
		swept   = time.Now()
	)
	perSecond := rate.Limit(float64(requests) / window.Seconds())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			if time.Since(swept) > 3*window {
				for ip, c := range clients {
					if time.Since(c.lastSeen) > 3*window {
						delete(clients, ip)
					}
				}
				swept = time.Now()
			}
			c, ok := clients[r.RemoteAddr]
			if !ok {
				c = &client{limiter: rate.NewLimiter(perSecond, requests)}
				clients[r.RemoteAddr] = c
			}
			c.lastSeen = time.Now()
			allowed := c.limiter.Allow()
			mu.Unlock()

			if !allowed {
				respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
