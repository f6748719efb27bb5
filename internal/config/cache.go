package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Methods is a comma separated list such as "GET,HEAD".
type CacheConfig struct {
    Enabled      bool          `envconfig:"CACHE_ENABLED" default:"true"`
    Methods      []string      `envconfig:"CACHE_METHODS" default:"GET"`
    TTL          time.Duration `envconfig:"CACHE_TTL" default:"30s"`
    KeyStrategy  string        `envconfig:"CACHE_KEY_STRATEGY" default:"route_query"`
    Prefix       string        `envconfig:"CACHE_PREFIX" default:"cache"`
    MaxBodyBytes int           `envconfig:"CACHE_MAX_BODY_BYTES" default:"1048576"`

    methods map[string]bool
}

// Cacheable reports whether responses to method may be cached.
func (c CacheConfig) Cacheable(method string) bool {
    if c.methods == nil {
        for _, m := range c.Methods {
            if strings.EqualFold(strings.TrimSpace(m), method) {
                return true
            }
        }
        return false
    }
    return c.methods[strings.ToUpper(method)]
}

func (c *CacheConfig) normalize() {
    c.methods = map[string]bool{}
    for _, p := range c.Methods {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            c.methods[p] = true
        }
    }
    if c.TTL <= 0 {
        c.TTL = time.Second
    }
}
