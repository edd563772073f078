// Package config loads typed configuration from the environment.
//
// It combines github.com/joho/godotenv (optional .env files) with
// github.com/caarlos0/env/v11 (struct tag parsing). Every package in this module
// exposes a Config struct with `env` tags; the binary loads each of them once:
//
//	var redisCfg redis.Config
//	config.MustLoad(&redisCfg)
//
// Parsed values are cached per type, so repeated Load calls are cheap and
// return the same copy. Reset clears the cache for tests.
package config
