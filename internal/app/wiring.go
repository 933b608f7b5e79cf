package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/receiving/internal/backend"
	"github.com/odyssey-erp/receiving/internal/platform/db"
	"github.com/odyssey-erp/receiving/internal/pricing"
)

// NewBackendClient builds the backend client. Calls outside a user request
// authenticate with BACKEND_SERVICE_TOKEN.
func NewBackendClient(cfg *Config, logger *slog.Logger) *backend.Client {
	return backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, backend.ForwardedToken(cfg.BackendServiceToken), logger)
}

// NewPricingService picks the rule source named by RULES_SOURCE and puts the
// Redis rule cache in front of it. The returned func releases whatever the
// source opened.
func NewPricingService(ctx context.Context, cfg *Config, redisClient *redis.Client, client *backend.Client, observer pricing.Observer) (*pricing.Service, func(), error) {
	source, closeSource, err := newRuleSource(ctx, cfg, client)
	if err != nil {
		return nil, nil, err
	}
	cache := pricing.NewCache(redisClient, cfg.RulesCacheTTL)
	return pricing.NewService(source, cache, observer), closeSource, nil
}

func newRuleSource(ctx context.Context, cfg *Config, client *backend.Client) (pricing.RuleSource, func(), error) {
	switch cfg.RulesSource {
	case RulesSourcePostgres:
		pool, err := db.NewReadOnly(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return pricing.NewPostgresSource(pool), pool.Close, nil
	case RulesSourceFile:
		return pricing.FileSource{Path: cfg.RulesFile}, func() {}, nil
	case RulesSourceBackend:
		return client, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown rules source %q", cfg.RulesSource)
}
