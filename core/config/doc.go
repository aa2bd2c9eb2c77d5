// Package config provides type-safe environment variable loading with
// per-type caching. It loads .env files on first use and parses variables
// into struct fields via caarlos0/env tags.
//
// Basic usage:
//
//	type SessionConfig struct {
//		SafetyTimeout time.Duration `env:"SESSION_SAFETY_TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg SessionConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Each configuration type is loaded only once per application lifetime;
// later Load calls for the same type return the cached value. Different
// types are cached independently.
package config
