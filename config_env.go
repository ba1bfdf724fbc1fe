package goGuard

import (
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrConfigLoad wraps failures of LoadConfig.
var ErrConfigLoad = errors.New("goGuard: config load failed")

// LoadConfig builds a Config from DefaultConfig overlaid with JWT_* environment
// variables. Named dotenv files are loaded first and must exist; with no names
// a ./.env file is loaded if present. Variables already set in the process
// environment take precedence over dotenv values.
//
// Example:
//
//	JWT_TOKEN_LOCATION=headers,cookies
//	JWT_HEADER_TYPE=Bearer
//	JWT_COOKIE_CSRF_PROTECT=true
//	JWT_AUDIT_ENABLED=true
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, errors.Join(ErrConfigLoad, err)
		}
	} else {
		// The default .env file is optional.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrConfigLoad, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Join(ErrConfigLoad, err)
	}
	return cfg, nil
}

// MustLoadConfig is LoadConfig for process start-up; it panics on failure.
func MustLoadConfig(envFiles ...string) Config {
	cfg, err := LoadConfig(envFiles...)
	if err != nil {
		panic(err)
	}
	return cfg
}
