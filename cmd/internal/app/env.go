package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Every helper treats an unset, blank, unparsable or out-of-range value as
// absent and returns def. LoadConfig never fails on a bad variable.

func lookupEnv(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func envParse[T any](key string, def T, parse func(string) (T, error), ok func(T) bool) T {
	raw, set := lookupEnv(key)
	if !set {
		return def
	}
	v, err := parse(raw)
	if err != nil || (ok != nil && !ok(v)) {
		return def
	}
	return v
}

func positive[T int | int32 | int64 | time.Duration](v T) bool { return v > 0 }

func nonNegative[T int | int32 | int64](v T) bool { return v >= 0 }

// EnvString reads a string env var with a default.
func EnvString(key, def string) string {
	if v, ok := lookupEnv(key); ok {
		return v
	}
	return def
}

// EnvBool reads a bool env var with a default.
func EnvBool(key string, def bool) bool {
	return envParse(key, def, strconv.ParseBool, nil)
}

// EnvInt reads a positive int.
func EnvInt(key string, def int) int {
	return envParse(key, def, strconv.Atoi, positive[int])
}

// EnvInt32 reads a non-negative int32 (pool sizes, where 0 means "unset").
func EnvInt32(key string, def int32) int32 {
	return envParse(key, def, func(s string) (int32, error) {
		n, err := strconv.ParseInt(s, 10, 32)
		return int32(n), err
	}, nonNegative[int32])
}

// EnvInt64 reads a positive int64 (byte sizes).
func EnvInt64(key string, def int64) int64 {
	return envParse(key, def, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	}, positive[int64])
}

// EnvDuration reads a positive duration such as "15s".
func EnvDuration(key string, def time.Duration) time.Duration {
	return envParse(key, def, time.ParseDuration, positive[time.Duration])
}
