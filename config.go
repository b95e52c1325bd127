package redikit

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type (
	// Config describes a set of named caches and which of them is the
	// main cache. It is usually read from a YAML file:
	//
	//	main: sessions
	//	caches:
	//	  - name: sessions
	//	    addr: localhost:6379
	//	    database: 1
	//	    poolCapacity: 20
	//	    borrowTimeout: 2s
	Config struct {
		Main   string        `yaml:"main"`
		Caches []CacheConfig `yaml:"caches"`
	}

	// CacheConfig describes a single cache. Zero values keep the
	// defaults of NewCache.
	CacheConfig struct {
		Name           string        `yaml:"name"`
		Addr           string        `yaml:"addr"`
		Password       string        `yaml:"password"`
		Database       int           `yaml:"database"`
		PoolCapacity   int           `yaml:"poolCapacity"`
		ConnectTimeout time.Duration `yaml:"connectTimeout"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		BorrowTimeout  time.Duration `yaml:"borrowTimeout"`
		StaleRetries   int           `yaml:"staleRetries"`
	}
)

// LoadConfig reads and validates the YAML config at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes and validates a YAML config.
func ParseConfig(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that every cache is named uniquely and addressable
// and that the main cache, if given, is one of them.
func (c *Config) Validate() error {
	if len(c.Caches) == 0 {
		return fmt.Errorf("%w: no caches configured", ErrInvalidArgument)
	}

	names := map[string]struct{}{}
	for i, cache := range c.Caches {
		name := strings.TrimSpace(cache.Name)
		if name == "" {
			return fmt.Errorf("%w: cache[%d]: name is required", ErrInvalidArgument, i)
		}

		if _, ok := names[name]; ok {
			return fmt.Errorf("%w: cache[%d]: %s", ErrDuplicateName, i, name)
		}

		names[name] = struct{}{}

		if cache.Addr == "" {
			return fmt.Errorf("%w: cache[%d] (%s): addr is required", ErrInvalidArgument, i, name)
		}

		if cache.PoolCapacity < 0 {
			return fmt.Errorf("%w: cache[%d] (%s): poolCapacity must not be negative", ErrInvalidArgument, i, name)
		}

		if cache.StaleRetries < 0 {
			return fmt.Errorf("%w: cache[%d] (%s): staleRetries must not be negative", ErrInvalidArgument, i, name)
		}
	}

	if main := strings.TrimSpace(c.Main); main != "" {
		if _, ok := names[main]; !ok {
			return fmt.Errorf("%w: main cache %s is not configured", ErrNotFound, main)
		}
	}

	return nil
}

// Build creates every configured cache, registers them, and designates
// the main cache. The extra configs (e.g. WithLogger) apply to every
// cache. Caches created before a failure are closed.
func (c *Config) Build(configs ...ConfigFunc) (*Registry, error) {
	registry := NewRegistry()

	for _, cacheConfig := range c.Caches {
		cache, err := NewCache(
			cacheConfig.Name,
			cacheConfig.Addr,
			append(cacheConfig.options(), configs...)...,
		)

		if err == nil {
			if err = registry.Register(cache); err != nil {
				cache.Close()
			}
		}

		if err != nil {
			registry.Close()
			return nil, err
		}
	}

	if strings.TrimSpace(c.Main) != "" {
		if err := registry.SetMain(c.Main); err != nil {
			registry.Close()
			return nil, err
		}
	}

	return registry, nil
}

func (c CacheConfig) options() []ConfigFunc {
	configs := []ConfigFunc{
		WithPassword(c.Password),
		WithDatabase(c.Database),
		WithStaleRetries(c.StaleRetries),
	}

	if c.PoolCapacity > 0 {
		configs = append(configs, WithPoolCapacity(c.PoolCapacity))
	}

	if c.ConnectTimeout > 0 {
		configs = append(configs, WithConnectTimeout(c.ConnectTimeout))
	}

	if c.ReadTimeout > 0 {
		configs = append(configs, WithReadTimeout(c.ReadTimeout))
	}

	if c.WriteTimeout > 0 {
		configs = append(configs, WithWriteTimeout(c.WriteTimeout))
	}

	if c.BorrowTimeout > 0 {
		configs = append(configs, WithBorrowTimeout(c.BorrowTimeout))
	}

	return configs
}
