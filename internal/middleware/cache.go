package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/summit-hub/booking-api/internal/config"
)

// captureWriter tees the response body (up to limit bytes) while forwarding
// it to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    limit  int
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 {
        cw.buf.Write(b)
    } else if room := cw.limit - cw.buf.Len(); room > 0 {
        if len(b) > room {
            cw.buf.Write(b[:room])
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKey hashes the parts of the request selected by KeyStrategy.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", c.Path()}
    case "method_route":
        parts = []string{"method", r.Method, "route", c.Path()}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
    default: // route_query
        parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdr, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdr)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
    copy(out[8:], hdr)
    copy(out[8+len(hdr):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = http.Header{}
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// NewRedisCache caches 200 responses of read endpoints such as the station
// list.  Headers and body are stored together so a hit replays the stored
// bytes.  The key ignores the caller, so it may only wrap routes whose
// response is the same for every caller.  Without Redis it does nothing.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Cacheable(c.Request().Method) {
                return next(c)
            }
            key := cacheKey(cfg, c)

            if bs, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, echo.HeaderContentLength) {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, err := c.Response().Write(body)
                    return err
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK {
                return nil
            }
            // truncated bodies are not worth replaying
            if cfg.MaxBodyBytes > 0 && int(c.Response().Size) > cfg.MaxBodyBytes {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                idx := routeIndexKey(cfg, c.Path())
                pipe := rdb.TxPipeline()
                pipe.Set(context.Background(), key, payload, ttl)
                pipe.SAdd(context.Background(), idx, key)
                pipe.Expire(context.Background(), idx, ttl)
                _, _ = pipe.Exec(context.Background())
            }
            return nil
        }
    }
}

// routeIndexKey names the set holding every cached key of one route.
func routeIndexKey(cfg config.CacheConfig, route string) string {
    return cfg.Prefix + ":route:" + route
}

// RoutePurger drops every cached response of one route.  Writers call it
// when the data behind the route changes.
type RoutePurger struct {
    cfg   config.CacheConfig
    rdb   *redis.Client
    route string
}

// NewRoutePurger targets route, the registered path as echo reports it
// from c.Path().
func NewRoutePurger(cfg config.CacheConfig, rdb *redis.Client, route string) *RoutePurger {
    return &RoutePurger{cfg: cfg, rdb: rdb, route: route}
}

// Purge deletes the cached entries.  Without Redis there is nothing to do.
func (p *RoutePurger) Purge(ctx context.Context) error {
    if p == nil || p.rdb == nil || !p.cfg.Enabled {
        return nil
    }
    idx := routeIndexKey(p.cfg, p.route)
    keys, err := p.rdb.SMembers(ctx, idx).Result()
    if err != nil {
        return err
    }
    return p.rdb.Del(ctx, append(keys, idx)...).Err()
}
