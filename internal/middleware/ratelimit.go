// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/crm-backend/internal/core"
	"github.com/carterperez-dev/crm-backend/internal/visibility"
)

const codeRateLimited = "RATE_LIMITED"

// Policy picks the bucket key and budget for a request. Returning ok=false
// exempts the request.
type Policy func(r *http.Request) (key string, limit redis_rate.Limit, ok bool)

// Limiter enforces a Policy with redis (GCRA). While redis is unreachable
// it falls back to per-process token buckets, so limits stay approximate
// instead of disappearing.
type Limiter struct {
	redis  *redis_rate.Limiter
	local  *localBuckets
	policy Policy
}

func NewLimiter(rdb *redis.Client, policy Policy) *Limiter {
	return &Limiter{
		redis:  redis_rate.NewLimiter(rdb),
		local:  &localBuckets{},
		policy: policy,
	}
}

func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, limit, ok := l.policy(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		res, err := l.redis.Allow(r.Context(), key, limit)
		if err != nil {
			slog.WarnContext(r.Context(), "rate limiter degraded to local buckets",
				"error", err,
				"key", key,
			)
			res = l.local.allow(key, limit)
		}

		setRateLimitHeaders(w, res, limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ByIP applies one budget per client address.
func ByIP(limit redis_rate.Limit) Policy {
	return func(r *http.Request) (string, redis_rate.Limit, bool) {
		return KeyByIP(r), limit, true
	}
}

// ByUserEndpoint applies one budget per user and normalised route.
func ByUserEndpoint(limit redis_rate.Limit) Policy {
	return func(r *http.Request) (string, redis_rate.Limit, bool) {
		return KeyByUserAndEndpoint(r), limit, true
	}
}

type RoleLimit struct {
	RequestsPerMinute int
	BurstSize         int
}

// DefaultRoleLimits gives admins and managers headroom for bulk tooling.
var DefaultRoleLimits = map[visibility.Role]RoleLimit{
	visibility.RoleSalesRep: {RequestsPerMinute: 120, BurstSize: 20},
	visibility.RoleManager:  {RequestsPerMinute: 300, BurstSize: 50},
	visibility.RoleAdmin:    {RequestsPerMinute: 600, BurstSize: 100},
}

// ByRole limits each user with the budget of their role. It must run after
// Authenticator; unknown roles get the sales rep budget.
func ByRole(limits map[visibility.Role]RoleLimit) Policy {
	return func(r *http.Request) (string, redis_rate.Limit, bool) {
		actor := GetActor(r.Context())

		cfg, ok := limits[actor.Role]
		if !ok {
			cfg = limits[visibility.RoleSalesRep]
		}

		return KeyByUser(r), PerMinute(cfg.RequestsPerMinute, cfg.BurstSize), true
	}
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}

// KeyByIP keys on the connection address only. Forwarded headers are
// honoured upstream by chi's RealIP when server.trust_proxy is set.
func KeyByIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	return "ratelimit:ip:" + ip
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID > 0 {
		return "ratelimit:user:" + strconv.FormatInt(userID, 10)
	}
	return KeyByIP(r)
}

func KeyByUserAndEndpoint(r *http.Request) string {
	return KeyByUser(r) + ":endpoint:" + normalizeEndpoint(r.URL.Path)
}

// normalizeEndpoint replaces numeric path segments so /leads/7/assign and
// /leads/8/assign share a bucket.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func setRateLimitHeaders(w http.ResponseWriter, res *redis_rate.Result, limit redis_rate.Limit) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSON(w, http.StatusTooManyRequests, core.Response{
		Error: &core.ErrorBody{
			Code:    codeRateLimited,
			Message: fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
			Details: map[string]any{"retry_after": retryAfter},
		},
	})
}

const bucketTTL = 10 * time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64
}

// localBuckets is the in-process fallback. Idle buckets are swept on
// access, at most once per bucketTTL.
type localBuckets struct {
	buckets   sync.Map
	nextSweep atomic.Int64
}

func (l *localBuckets) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	now := time.Now()
	l.sweep(now)

	perSec := float64(limit.Rate) / limit.Period.Seconds()

	v, _ := l.buckets.LoadOrStore(key, &bucket{lim: rate.NewLimiter(rate.Limit(perSec), limit.Burst)})
	b := v.(*bucket) //nolint:forcetypeassert // only *bucket is stored
	b.lastSeen.Store(now.Unix())

	interval := time.Duration(float64(time.Second) / perSec)
	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(int(b.lim.TokensAt(now)), 0),
		RetryAfter: -1,
		ResetAfter: interval,
	}

	if b.lim.AllowN(now, 1) {
		res.Allowed = 1
		res.Remaining = max(res.Remaining-1, 0)
	} else {
		res.RetryAfter = interval
	}

	return res
}

func (l *localBuckets) sweep(now time.Time) {
	next := l.nextSweep.Load()
	if now.Unix() < next || !l.nextSweep.CompareAndSwap(next, now.Add(bucketTTL).Unix()) {
		return
	}

	cutoff := now.Add(-bucketTTL).Unix()
	l.buckets.Range(func(key, value any) bool {
		if b, ok := value.(*bucket); ok && b.lastSeen.Load() < cutoff {
			l.buckets.Delete(key)
		}
		return true
	})
}
