// Package matching resolves structured travel intents against the plan
// catalog with a tiered strategy:
// - Strict pass = every stated constraint applied at once
// - Relaxed pass = destination plus trip length floor, nothing else
package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/internal/repositories/plan"
	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// PlanFinder is the catalog surface the resolver needs.
type PlanFinder interface {
	Search(ctx context.Context, filter plan.SearchFilter) ([]models.Plan, error)
	SearchClosest(ctx context.Context, countryCode string, minDuration *int, limit int) ([]models.Plan, error)
}

// Config contains configuration for the match resolver.
type Config struct {
	MaxExactResults int // Cap on plans returned for an exact match (default: 2)
	MaxCloseResults int // Cap on plans returned for a close match (default: 2)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxExactResults: 2,
		MaxCloseResults: 2,
	}
}

// ResolveParams is the filterable part of an intent with the destination
// already resolved to a catalog code.
type ResolveParams struct {
	CountryCode    string
	DataAmount     *float64
	DataUnit       *string
	DurationInDays *int
}

// Service resolves intents against the catalog.
type Service struct {
	log   ectologger.Logger
	plans PlanFinder
	cfg   Config
}

// NewService creates a new match resolver.
func NewService(log ectologger.Logger, plans PlanFinder, cfg Config) *Service {
	if cfg.MaxExactResults <= 0 {
		cfg.MaxExactResults = DefaultConfig().MaxExactResults
	}
	if cfg.MaxCloseResults <= 0 {
		cfg.MaxCloseResults = DefaultConfig().MaxCloseResults
	}
	return &Service{
		log:   log,
		plans: plans,
		cfg:   cfg,
	}
}

// Resolve runs the tiered catalog search for an intent.
//
// Purpose: Decide between a confident answer, a fallback offer, and an honest miss.
// Outcome: The result tag always agrees with its rows. An error means the
// catalog could not be consulted, never that nothing matched.
func (s *Service) Resolve(ctx context.Context, params ResolveParams) (models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Service.Resolve")
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(map[string]any{
		"country_code": params.CountryCode,
	})

	exact, err := s.strictPass(ctx, params)
	if err != nil {
		metrics.RecordMatchResolution("error", 0)
		return models.MatchResult{}, err
	}
	if len(exact) > 0 {
		log.WithFields(map[string]any{"count": len(exact)}).Debug("Strict pass matched")
		metrics.RecordMatchResolution(string(models.MatchOutcomeExact), len(exact))
		return models.ExactMatch(exact), nil
	}

	// Relax everything except the destination and the trip length floor
	closest, err := s.plans.SearchClosest(ctx, params.CountryCode, params.DurationInDays, s.cfg.MaxCloseResults)
	if err != nil {
		metrics.RecordMatchResolution("error", 0)
		return models.MatchResult{}, err
	}
	if len(closest) > 0 {
		log.WithFields(map[string]any{"count": len(closest)}).Debug("Relaxed pass matched")
		metrics.RecordMatchResolution(string(models.MatchOutcomeClose), len(closest))
		return models.CloseMatch(closest), nil
	}

	log.Debug("No plans found for destination")
	metrics.RecordMatchResolution(string(models.MatchOutcomeNone), 0)
	return models.NoMatch(), nil
}

func (s *Service) strictPass(ctx context.Context, params ResolveParams) ([]models.Plan, error) {
	if durationOnly(params) {
		// a trip length on its own would sweep up every plan for the
		// destination, so the cap is what keeps this shape answerable
		s.log.WithContext(ctx).Debug("Trip length is the only constraint; capping strict results")
	}

	return s.plans.Search(ctx, plan.SearchFilter{
		CountryCode:    params.CountryCode,
		DataAmount:     params.DataAmount,
		DataUnit:       params.DataUnit,
		DurationInDays: params.DurationInDays,
		Limit:          s.cfg.MaxExactResults,
	})
}

func durationOnly(params ResolveParams) bool {
	return params.DurationInDays != nil && params.DataAmount == nil && params.DataUnit == nil
}
