package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdle  = 10 * time.Minute
	sweepEvery   = time.Minute
	rateLimitMsg = "muitas requisições, tente novamente em instantes"
)

// KeyFunc escolhe o balde da requisição; vazio deixa passar sem limite.
type KeyFunc func(*http.Request) string

// RateLimiter guarda um token bucket por chave. Baldes ociosos são varridos
// no máximo uma vez por minuto, na criação de um novo balde.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(reqPerSec),
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Limit devolve o middleware que responde 429 com Retry-After quando o balde esvazia.
func (l *RateLimiter) Limit(key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}
			if wait, ok := l.take(k); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(wait))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", rateLimitMsg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// take consome um token; sem token devolve em quantos segundos haverá um.
func (l *RateLimiter) take(key string) (int, bool) {
	now := l.now()
	lim := l.bucketFor(key, now)

	res := lim.ReserveN(now, 1)
	if !res.OK() {
		return 1, false
	}
	delay := res.DelayFrom(now)
	if delay == 0 {
		return 0, true
	}
	res.CancelAt(now)
	return int(math.Ceil(delay.Seconds())), false
}

func (l *RateLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		b.seen = now
		return b.limiter
	}
	if now.Sub(l.lastSweep) >= sweepEvery {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > limiterIdle {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	b := &bucket{limiter: rate.NewLimiter(l.limit, l.burst), seen: now}
	l.buckets[key] = b
	return b.limiter
}

// clientIP lê o endereço remoto, já corrigido pelo RealIP do chi no roteador.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func ByIP(r *http.Request) string {
	return "ip:" + clientIP(r)
}

// BySession usa a sessão do navegador e cai no IP quando não há sessão.
func BySession(r *http.Request) string {
	if sid := GetSessionID(r.Context()); sid != "" {
		return "sessao:" + sid
	}
	return ByIP(r)
}

func IPRateLimit(l *RateLimiter) func(http.Handler) http.Handler {
	return l.Limit(ByIP)
}

func SessionRateLimit(l *RateLimiter) func(http.Handler) http.Handler {
	return l.Limit(BySession)
}
