package config

import (
    "strings"
    "time"
)

// RateLimitConfig drives the Redis token bucket limiter.  Burst, when set,
// overrides Capacity and RefillEvery replaces the tokens/interval pair with
// one token per period.
type RateLimitConfig struct {
    Enabled        bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
    Capacity       int           `envconfig:"RATE_LIMIT_CAPACITY" default:"60"`
    Burst          int           `envconfig:"RATE_LIMIT_BURST"`
    RefillTokens   int           `envconfig:"RATE_LIMIT_REFILL_TOKENS" default:"1"`
    RefillInterval time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`
    RefillEvery    time.Duration `envconfig:"RATE_LIMIT_REFILL_EVERY"`
    TTL            time.Duration `envconfig:"RATE_LIMIT_TTL" default:"10m"`
    KeyStrategy    string        `envconfig:"RATE_LIMIT_KEY_STRATEGY" default:"ip_user_route"`
    Prefix         string        `envconfig:"RATE_LIMIT_PREFIX" default:"rl"`
    Debug          bool          `envconfig:"RATE_LIMIT_DEBUG"`
}

func (r *RateLimitConfig) normalize() {
    if r.Burst > 0 {
        r.Capacity = r.Burst
    }
    if r.RefillEvery > 0 {
        r.RefillTokens = 1
        r.RefillInterval = r.RefillEvery
    }
    if r.Capacity < 1 {
        r.Capacity = 1
    }
    if r.RefillTokens < 1 {
        r.RefillTokens = 1
    }
    if r.RefillInterval <= 0 {
        r.RefillInterval = time.Second
    }
    // buckets must outlive a few refill periods or they reset too eagerly
    if minTTL := 5 * r.RefillInterval; r.TTL < minTTL {
        r.TTL = minTTL
    }
    r.KeyStrategy = strings.ToLower(strings.TrimSpace(r.KeyStrategy))
}
