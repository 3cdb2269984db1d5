package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"island_catalog/internal/adapters/observability"
	"island_catalog/internal/adapters/places"
	redisad "island_catalog/internal/adapters/redis"
	"island_catalog/internal/domain"
	"island_catalog/internal/shared"
)

var cfg shared.Config

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Reconcile and enrich the island POI catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = shared.Load()
			log.Logger = observability.NewLogger(cfg.AppEnv)
		},
	}

	rootCmd.AddCommand(
		mergeCmd(),
		enrichCmd(),
		auditCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// newPlacesClient builds the API client, or nil when no key is configured
// and the caller can live without one.
func newPlacesClient(required bool) (domain.PlacesClient, error) {
	if cfg.PlacesKey == "" {
		if required {
			return nil, errMissingAPIKey
		}
		return nil, nil
	}
	return places.New(cfg.PlacesBase, cfg.PlacesKey, cfg.PlacesRPS)
}

// newCache connects to redis when configured; degrades to nil (no cache)
// when redis is absent or unreachable.
func newCache(ctx context.Context) domain.Cache {
	if cfg.RedisAddr == "" {
		return nil
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := c.Ping(ctx); err != nil {
		log.Warn().Str("addr", cfg.RedisAddr).Err(err).Msg("redis unreachable, caching disabled")
		return nil
	}
	return c
}
