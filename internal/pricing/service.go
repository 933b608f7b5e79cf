package pricing

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/receiving/internal/shared"
)

// Observer receives round-off outcomes for instrumentation.
type Observer interface {
	ObserveRoundOff(matched bool)
}

// Service loads round-off rules and prices cost/margin pairs against them.
type Service struct {
	source   RuleSource
	cache    *Cache
	observer Observer
	loads    singleflight.Group
}

// NewService constructs the pricing service. cache and observer may be nil.
func NewService(source RuleSource, cache *Cache, observer Observer) *Service {
	return &Service{source: source, cache: cache, observer: observer}
}

// Rules returns the normalised rule set, served from cache when possible.
// Concurrent misses share a single source load. The shared load ignores the
// caller's cancellation and bearer token; each caller stops waiting when its
// own ctx ends.
func (s *Service) Rules(ctx context.Context) ([]RoundOffRule, error) {
	key, err := s.cache.BuildKey(ctx, "pricing", "rules")
	if err != nil {
		return nil, fmt.Errorf("pricing: cache key: %w", err)
	}
	loadCtx := shared.WithoutBearerToken(context.WithoutCancel(ctx))
	ch := s.loads.DoChan(key, func() (interface{}, error) {
		return s.cache.FetchRules(loadCtx, key, s.load)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]RoundOffRule), nil
	}
}

func (s *Service) load(ctx context.Context) ([]RoundOffRule, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	records, err := s.source.LoadRules(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizeRules(records)
}

// Refresh invalidates the cached rules and reloads them, returning the
// number of brackets now in effect.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return 0, fmt.Errorf("pricing: bump cache: %w", err)
	}
	rules, err := s.Rules(ctx)
	if err != nil {
		return 0, err
	}
	return len(rules), nil
}

// Quote prices cost and profitPercent against the current rules.
func (s *Service) Quote(ctx context.Context, cost, profitPercent float64) (Quote, error) {
	rules, err := s.Rules(ctx)
	if err != nil {
		return Quote{}, err
	}
	q := Price(cost, profitPercent, rules)
	s.observe(q.ComputedPrice, rules)
	return q, nil
}

func (s *Service) observe(price float64, rules []RoundOffRule) {
	if s.observer == nil {
		return
	}
	_, matched := roundOff(price, rules)
	s.observer.ObserveRoundOff(matched)
}
