package middleware

import (
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "sync"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
    "golang.org/x/time/rate"

    "github.com/happycoon/coffee-table-reservation/internal/config"
)

// limiterScript refills and takes one token atomically.  It returns
// {allowed, remaining, retry_after_ms}.
var limiterScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

// NewTokenBucket limits requests per key (see RateLimitConfig.KeyStrategy).
// The bucket is shared through Redis when rdb is set; without Redis every
// process keeps its own buckets.  A Redis failure lets the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    if rdb == nil {
        return newLocalBucket(cfg, log)
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            args := []interface{}{
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }

            vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
            if err != nil {
                log.Warn().Err(err).Str("key", key).Msg("rate limit script failed")
                return next(c)
            }
            arr, ok := vals.([]interface{})
            if !ok || len(arr) != 3 {
                log.Warn().Str("key", key).Msgf("unexpected rate limit result %#v", vals)
                return next(c)
            }
            allowed := fmt.Sprint(arr[0]) == "1"
            remaining := asInt64(arr[1])
            retry := time.Duration(asInt64(arr[2])) * time.Millisecond

            setRateHeaders(c, cfg, key, remaining)
            if !allowed {
                log.Debug().Str("key", key).Dur("retry", retry).Msg("rate limited")
                return tooManyRequests(c, retry)
            }
            return next(c)
        }
    }
}

// localBuckets holds one x/time/rate limiter per key.  Idle keys are swept
// once they have not been seen for cfg.TTL.
type localBuckets struct {
    cfg      config.RateLimitConfig
    mu       sync.Mutex
    buckets  map[string]*localBucket
    lastSweep time.Time
}

type localBucket struct {
    lim  *rate.Limiter
    seen time.Time
}

func newLocalBucket(cfg config.RateLimitConfig, log zerolog.Logger) echo.MiddlewareFunc {
    lb := &localBuckets{cfg: cfg, buckets: make(map[string]*localBucket), lastSweep: time.Now()}
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            now := time.Now()
            lim := lb.get(key, now)

            r := lim.ReserveN(now, 1)
            if delay := r.DelayFrom(now); delay > 0 {
                r.CancelAt(now)
                setRateHeaders(c, cfg, key, 0)
                log.Debug().Str("key", key).Dur("retry", delay).Msg("rate limited")
                return tooManyRequests(c, delay)
            }
            setRateHeaders(c, cfg, key, int64(lim.TokensAt(now)))
            return next(c)
        }
    }
}

func (lb *localBuckets) get(key string, now time.Time) *rate.Limiter {
    lb.mu.Lock()
    defer lb.mu.Unlock()

    if now.Sub(lb.lastSweep) > lb.cfg.TTL {
        for k, b := range lb.buckets {
            if now.Sub(b.seen) > lb.cfg.TTL {
                delete(lb.buckets, k)
            }
        }
        lb.lastSweep = now
    }

    b, ok := lb.buckets[key]
    if !ok {
        every := lb.cfg.RefillInterval / time.Duration(lb.cfg.RefillTokens)
        b = &localBucket{lim: rate.NewLimiter(rate.Every(every), lb.cfg.Capacity)}
        lb.buckets[key] = b
    }
    b.seen = now
    return b.lim
}

func setRateHeaders(c echo.Context, cfg config.RateLimitConfig, key string, remaining int64) {
    if remaining < 0 {
        remaining = 0
    }
    h := c.Response().Header()
    h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
    h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
    if cfg.Debug {
        h.Set("X-RateLimit-Key", key)
    }
}

func tooManyRequests(c echo.Context, retry time.Duration) error {
    secs := int(math.Ceil(retry.Seconds()))
    if secs < 1 {
        secs = 1
    }
    c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
    return c.JSON(http.StatusTooManyRequests, map[string]any{
        "error":       "too_many_requests",
        "message":     "rate limit exceeded",
        "retry_after": secs,
    })
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := currentUserID(c)
    route := c.Request().Method + " " + c.Path()

    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "route":
        parts = append(parts, "route", route)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "ip_route":
        parts = append(parts, "ip", ip, "route", route)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default:
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}

// currentUserID is the authenticated user id as a string, or "anon" on
// public routes.
func currentUserID(c echo.Context) string {
    if id, ok := c.Get(ctxUserID).(uint64); ok && id != 0 {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
