package config

// Redis backs distributed rate limiting, the response cache, the user
// cache and the CSRF token store.  If the server cannot be reached at
// startup NewRedisClient returns nil and callers fall back to in-process
// state.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings.  REDIS_HOST and REDIS_PORT take
// precedence over REDIS_ADDR when both are set.
type RedisConfig struct {
    Host     string `envconfig:"REDIS_HOST"`
    Port     string `envconfig:"REDIS_PORT"`
    Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
    Password string `envconfig:"REDIS_PASSWORD"`
    DB       int    `envconfig:"REDIS_DB"`
    TLS      bool   `envconfig:"REDIS_TLS"`
    Disabled bool   `envconfig:"REDIS_DISABLED"`
}

func (r RedisConfig) address() string {
    if r.Host != "" && r.Port != "" {
        return r.Host + ":" + r.Port
    }
    return r.Addr
}

// NewRedisClient connects to Redis and pings it with a short timeout.  The
// returned client is nil when Redis is disabled or unreachable.
func NewRedisClient(rc RedisConfig) *redis.Client {
    if rc.Disabled {
        return nil
    }
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.address(),
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
