package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Env reads typed settings from environment variables. Unset or malformed values fall back
// to the supplied default.
type Env struct {
	lookup func(string) (string, bool)
}

// OSEnv reads the process environment.
func OSEnv() Env {
	return Env{lookup: os.LookupEnv}
}

// MapEnv reads from a fixed set of values.
func MapEnv(values map[string]string) Env {
	return Env{lookup: func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}}
}

func (e Env) raw(key string) string {
	if e.lookup == nil {
		return ""
	}
	v, _ := e.lookup(key)
	return strings.TrimSpace(v)
}

// Set reports whether key holds a non-blank value.
func (e Env) Set(key string) bool {
	return e.raw(key) != ""
}

func (e Env) String(key, def string) string {
	if v := e.raw(key); v != "" {
		return v
	}
	return def
}

func (e Env) Bool(key string, def bool) bool {
	switch strings.ToLower(e.raw(key)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func (e Env) Int(key string, def int) int {
	v := e.raw(key)
	if v == "" {
		return def
	}
	parsed, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return parsed
}

func (e Env) Float(key string, def float64) float64 {
	v := e.raw(key)
	if v == "" {
		return def
	}
	parsed, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return parsed
}

// Duration accepts Go duration strings such as "90s" or "168h". Negative values are rejected.
func (e Env) Duration(key string, def time.Duration) time.Duration {
	v := e.raw(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
