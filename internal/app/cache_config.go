package app

import (
	"strings"

	"github.com/charlesng35/postboard/internal/cache"
)

// BackendName returns the normalised cache backend, defaulting to memory.
func (c CacheConfig) BackendName() string {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if backend == "" {
		return CacheBackendMemory
	}
	return backend
}

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// MemoryStoreConfig converts the memory section into sturdyc sizing parameters.
func (c CacheConfig) MemoryStoreConfig() cache.MemoryConfig {
	return cache.MemoryConfig{
		Capacity:           c.Memory.Capacity,
		Shards:             c.Memory.Shards,
		EvictionPercentage: c.Memory.EvictionPercentage,
	}
}
