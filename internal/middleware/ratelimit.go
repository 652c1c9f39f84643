package middleware

import (
    "context"
    "errors"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/coworking-booking/internal/config"
)

// bucketScript refills a token bucket stored as a hash and takes one
// token if available.  Returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local every = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local st = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(st[1])
local ts = tonumber(st[2])
if tokens == nil or ts == nil then
    tokens = capacity
    ts = now
end

local n = math.floor(math.max(0, now - ts) / every)
if n > 0 then
    tokens = math.min(capacity, tokens + n * refill)
    ts = ts + n * every
end

local ok = 0
local wait = 0
if tokens > 0 then
    ok = 1
    tokens = tokens - 1
else
    wait = math.max(0, every - (now - ts))
end

redis.call('HSET', key, 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', key, ttl)
return {ok, tokens, wait}
`)

var errBucketReply = errors.New("unexpected token bucket reply")

type bucket struct {
    rdb *redis.Client
    cfg config.RateLimitConfig
}

type verdict struct {
    allowed   bool
    remaining int64
    retry     time.Duration
}

func (b bucket) take(ctx context.Context, key string, now time.Time) (verdict, error) {
    res, err := bucketScript.Run(ctx, b.rdb, []string{key},
        now.UnixMilli(),
        b.cfg.Capacity,
        b.cfg.RefillTokens,
        b.cfg.RefillInterval.Milliseconds(),
        int64(b.cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return verdict{}, err
    }
    if len(res) != 3 {
        return verdict{}, errBucketReply
    }
    return verdict{
        allowed:   res[0] == 1,
        remaining: res[1],
        retry:     time.Duration(res[2]) * time.Millisecond,
    }, nil
}

// NewTokenBucket limits requests with a Redis token bucket keyed by
// cfg.KeyStrategy.  Redis errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    b := bucket{rdb: rdb, cfg: cfg}

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            v, err := b.take(c.Request().Context(), key, time.Now())
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("ratelimit: key=%s: %v", key, err)
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if v.allowed {
                return next(c)
            }

            secs := int(math.Ceil(v.retry.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            return c.JSON(http.StatusTooManyRequests, map[string]any{
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

// NewBookingThrottle is a second, per-user bucket for booking creation.
// It shares the Redis script with NewTokenBucket but uses the
// RATE_LIMIT_BOOKING_* capacity and refill period.
func NewBookingThrottle(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if cfg.BookingBurst <= 0 {
        return passThrough
    }
    return NewTokenBucket(config.RateLimitConfig{
        Enabled:        cfg.Enabled,
        Capacity:       cfg.BookingBurst,
        RefillTokens:   1,
        RefillInterval: cfg.BookingRefillEvery,
        TTL:            max(cfg.TTL, time.Duration(cfg.BookingBurst)*cfg.BookingRefillEvery),
        KeyStrategy:    "user",
        Prefix:         cfg.Prefix + ":book",
        Debug:          cfg.Debug,
    }, rdb)
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// rateKey joins the prefix with the parts named by the strategy, e.g.
// "ip_user" gives prefix:ip:<addr>:user:<id>.  Unknown strategies use
// ip, user and route together.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := map[string]string{
        "ip":    ip,
        "user":  userKey(c),
        "route": c.Request().Method + " " + c.Path(),
    }

    strategy := strings.ToLower(cfg.KeyStrategy)
    names := strings.Split(strategy, "_")
    for _, n := range names {
        if _, ok := parts[n]; !ok {
            names = []string{"ip", "user", "route"}
            break
        }
    }

    key := []string{cfg.Prefix}
    for _, n := range names {
        key = append(key, n, parts[n])
    }
    return strings.Join(key, ":")
}
