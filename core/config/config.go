package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// cache maps a config struct type to its parsed value.
	cache sync.Map

	// envOnce guards the one-time .env file load.
	envOnce sync.Once
)

// Load parses environment variables into cfg, which must be a non-nil pointer
// to a struct with `env` tags. Each struct type is parsed once per process;
// subsequent calls for the same type return the cached value.
//
// A .env file in the working directory is loaded on first use. A missing file
// is not an error.
func Load(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: Load expects a non-nil struct pointer, got %T", cfg)
	}

	envOnce.Do(func() {
		_ = godotenv.Load()
	})

	t := v.Elem().Type()
	if cached, ok := cache.Load(t); ok {
		v.Elem().Set(cached.(reflect.Value))
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", t, err)
	}

	// Cache a detached copy so later caller mutations don't leak into it.
	cp := reflect.New(t).Elem()
	cp.Set(v.Elem())
	cache.Store(t, cp)

	return nil
}

// MustLoad is Load that panics on failure. Useful during startup where a
// missing required variable should stop the process.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
