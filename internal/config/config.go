package config

import (
	"os"
	"strings"
)

type Config struct {
	Port           string
	RedisAddr      string
	RedisPassword  string
	AllowedOrigins []string
	Debug          bool
}

// FromEnv reads the server configuration from the environment. An empty
// REDIS_ADDR selects the in-memory store.
func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.RedisAddr = os.Getenv("REDIS_ADDR")
	c.RedisPassword = os.Getenv("REDIS_PASSWORD")
	c.Debug = getenv("DEBUG", "false") == "true"

	origins := getenv("ALLOWED_ORIGINS", "*")
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, origin)
		}
	}
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
