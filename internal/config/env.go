package config

import (
	"os"
	"strconv"
	"strings"
)

// GetString returns the trimmed value of key, or def when unset or blank
func GetString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// GetInt returns key parsed as an int. Unparseable values yield def.
func GetInt(key string, def int) int {
	return parsedEnv(key, def, strconv.Atoi)
}

// GetFloat returns key parsed as a float64. Unparseable values yield def.
func GetFloat(key string, def float64) float64 {
	return parsedEnv(key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func parsedEnv[T any](key string, def T, parse func(string) (T, error)) T {
	v := GetString(key, "")
	if v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

// GetBool accepts the strconv.ParseBool spellings
func GetBool(key string, def bool) bool {
	return parsedEnv(key, def, strconv.ParseBool)
}
