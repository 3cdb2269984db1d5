package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv       string
	OpsAddr      string
	PlacesBase   string
	PlacesKey    string
	PlacesRPS    int
	RedisAddr    string
	RedisDB      int
	RedisPass    string
	Workers      int
	BatchSize    int
	CacheTTL     time.Duration
	SearchRadius int
}

func Load() Config {
	// local .env is a convenience; absence is normal
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	return Config{
		AppEnv:       env("APP_ENV", "prod"),
		OpsAddr:      env("OPS_ADDR", ""),
		PlacesBase:   env("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesKey:    env("PLACES_API_KEY", ""),
		PlacesRPS:    atoi("PLACES_RPS", 5),
		RedisAddr:    env("REDIS_ADDR", ""),
		RedisPass:    env("REDIS_PASSWORD", ""),
		RedisDB:      atoi("REDIS_DB", 0),
		Workers:      atoi("ENRICH_WORKERS", 4),
		BatchSize:    atoi("ENRICH_BATCH", 50),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 86400)) * time.Second,
		SearchRadius: atoi("SEARCH_RADIUS_METERS", 5000),
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
