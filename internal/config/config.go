// Package config loads application configuration from environment
// variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field
// corresponds to one environment variable.
type Config struct {
	Env          string // APP_ENV; "dev", "test" or "prod"
	Port         string // APP_PORT; HTTP port to listen on
	DBUser       string // DB_USER
	DBPass       string // DB_PASS; empty allowed
	DBHost       string // DB_HOST
	DBPort       string // DB_PORT
	DBName       string // DB_NAME
	JWTSecret    string // JWT_SECRET; signs access tokens
	AccessTTLMin int    // ACCESS_TOKEN_TTL_MIN
	BcryptCost   int    // BCRYPT_COST; password hashing cost
}

// Load reads the configuration from the environment. A missing
// required variable aborts startup.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:   mustInt("BCRYPT_COST"),
	}
}

func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
