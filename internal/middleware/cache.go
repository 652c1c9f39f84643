package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/coworking-booking/internal/config"
)

// cachedResponse is what the cache stores per key.
type cachedResponse struct {
    Status int         `json:"status"`
    Header http.Header `json:"header"`
    Body   []byte      `json:"body"`
}

// recorder tees the response into a buffer until limit bytes have been
// written; past that it only forwards and marks the capture as spoiled.
type recorder struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (r *recorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
    if !r.overflow {
        if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
            r.overflow = true
            r.buf.Reset()
        } else {
            r.buf.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the request parts named by cfg.KeyStrategy
// ("route", "method_route", "method_route_query", default
// "route_query").  gen is the current cache generation; bumping it
// orphans every older entry.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, gen int64) string {
    r := c.Request()
    strategy := strings.ToLower(cfg.KeyStrategy)
    if strategy == "" {
        strategy = "route_query"
    }

    var parts []string
    for _, name := range strings.Split(strategy, "_") {
        switch name {
        case "method":
            parts = append(parts, "method", r.Method)
        case "route":
            parts = append(parts, "route", c.Path())
        case "query":
            parts = append(parts, "q", r.URL.RawQuery)
        }
    }
    if len(parts) == 0 {
        parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
    }

    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:g%d:%s", cfg.Prefix, gen, hex.EncodeToString(sum[:]))
}

func generationKey(cfg config.CacheConfig) string { return cfg.Prefix + ":gen" }

// NewRedisCache serves repeated reads of the browse endpoints from
// Redis.  Only 200 responses no larger than cfg.MaxBodyBytes are
// stored.  Any Redis failure falls through to the handler.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }

            ctx := c.Request().Context()
            gen, err := rdb.Get(ctx, generationKey(cfg)).Int64()
            if err != nil && !errors.Is(err, redis.Nil) {
                return next(c)
            }
            key := cacheKeyFrom(cfg, c, gen)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    return replay(c, hit)
                }
            }

            rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.overflow {
                return nil
            }

            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            hdr.Del(echo.HeaderContentLength)
            hdr.Del(echo.HeaderXRequestID)
            payload, err := json.Marshal(cachedResponse{Status: rec.status, Header: hdr, Body: rec.buf.Bytes()})
            if err != nil {
                return nil
            }
            if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
                c.Logger().Warnf("cache: store %s: %v", c.Path(), err)
            }
            return nil
        }
    }
}

func replay(c echo.Context, hit cachedResponse) error {
    h := c.Response().Header()
    for k, vals := range hit.Header {
        for _, v := range vals {
            h.Add(k, v)
        }
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(hit.Status)
    _, err := c.Response().Write(hit.Body)
    return err
}

// InvalidateOnWrite bumps the cache generation after every successful
// mutating request, so browse responses never outlive a change to
// resources or bookings.
func InvalidateOnWrite(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if err != nil || cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return err
            }
            if st := c.Response().Status; st >= 200 && st < 300 {
                if ierr := rdb.Incr(context.WithoutCancel(c.Request().Context()), generationKey(cfg)).Err(); ierr != nil {
                    c.Logger().Warnf("cache: invalidate: %v", ierr)
                }
            }
            return err
        }
    }
}
