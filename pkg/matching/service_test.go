package matching

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/internal/repositories/plan"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

// fakeCatalog applies the same filter semantics as the real repository over
// an in-memory slice.
type fakeCatalog struct {
	plans      []models.Plan
	searchErr  error
	closestErr error

	searchCalls  []plan.SearchFilter
	closestCalls int
}

func (f *fakeCatalog) Search(ctx context.Context, filter plan.SearchFilter) ([]models.Plan, error) {
	f.searchCalls = append(f.searchCalls, filter)
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	var out []models.Plan
	for _, p := range f.plans {
		if !strings.Contains(p.CountryCode, filter.CountryCode) {
			continue
		}
		if filter.DataUnit != nil && p.DataUnit != *filter.DataUnit {
			continue
		}
		if filter.DataAmount != nil && p.DataAmount < *filter.DataAmount {
			continue
		}
		if filter.DurationInDays != nil && p.DurationInDays != *filter.DurationInDays {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeCatalog) SearchClosest(ctx context.Context, countryCode string, minDuration *int, limit int) ([]models.Plan, error) {
	f.closestCalls++
	if f.closestErr != nil {
		return nil, f.closestErr
	}

	var out []models.Plan
	for _, p := range f.plans {
		if !strings.Contains(p.CountryCode, countryCode) {
			continue
		}
		if minDuration != nil && p.DurationInDays < *minDuration {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DurationInDays != out[j].DurationInDays {
			return out[i].DurationInDays > out[j].DurationInDays
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func japanCatalog() []models.Plan {
	return []models.Plan{
		{ID: "jp-05", CountryCode: "JP", DataAmount: 3, DataUnit: "GB", DurationInDays: 5, Price: 9.99},
		{ID: "jp-10a", CountryCode: "JP", DataAmount: 5, DataUnit: "GB", DurationInDays: 10, Price: 19.99},
		{ID: "jp-10b", CountryCode: "JP", DataAmount: 10, DataUnit: "GB", DurationInDays: 10, Price: 24.99},
		{ID: "jp-15", CountryCode: "JP", DataAmount: 10, DataUnit: "GB", DurationInDays: 15, Price: 29.99},
		{ID: "jp-30", CountryCode: "JP", DataAmount: 20, DataUnit: "GB", DurationInDays: 30, Price: 49.99},
	}
}

func newTestService(catalog *fakeCatalog) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewService(logger, catalog, DefaultConfig())
}

func TestResolve_ExactOnDuration(t *testing.T) {
	catalog := &fakeCatalog{plans: japanCatalog()}
	svc := newTestService(catalog)

	result, err := svc.Resolve(context.Background(), ResolveParams{
		CountryCode:    "JP",
		DurationInDays: ptr(10),
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchOutcomeExact, result.Outcome())
	require.Len(t, result.Plans(), 2)
	for _, p := range result.Plans() {
		assert.Equal(t, 10, p.DurationInDays)
	}
	// cheapest first within the cap
	assert.Equal(t, "jp-10a", result.Plans()[0].ID)
	assert.Equal(t, "jp-10b", result.Plans()[1].ID)
	assert.Equal(t, 0, catalog.closestCalls)
}

func TestResolve_ExactRespectsAllConstraints(t *testing.T) {
	catalog := &fakeCatalog{plans: japanCatalog()}
	svc := newTestService(catalog)

	result, err := svc.Resolve(context.Background(), ResolveParams{
		CountryCode:    "JP",
		DataAmount:     ptr(8.0),
		DataUnit:       ptr("GB"),
		DurationInDays: ptr(10),
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchOutcomeExact, result.Outcome())
	require.Len(t, result.Plans(), 1)
	assert.Equal(t, "jp-10b", result.Plans()[0].ID)
}

func TestResolve_PassesFilterThrough(t *testing.T) {
	catalog := &fakeCatalog{plans: japanCatalog()}
	svc := newTestService(catalog)

	_, err := svc.Resolve(context.Background(), ResolveParams{
		CountryCode:    "JP",
		DurationInDays: ptr(10),
	})
	require.NoError(t, err)

	require.Len(t, catalog.searchCalls, 1)
	filter := catalog.searchCalls[0]
	assert.Equal(t, "JP", filter.CountryCode)
	assert.Equal(t, 2, filter.Limit)
	assert.Nil(t, filter.DataAmount)
	assert.Nil(t, filter.DataUnit)
	require.NotNil(t, filter.DurationInDays)
	assert.Equal(t, 10, *filter.DurationInDays)
}

func TestResolve_CloseMatchIgnoresDataConstraints(t *testing.T) {
	catalog := &fakeCatalog{plans: japanCatalog()}
	svc := newTestService(catalog)

	result, err := svc.Resolve(context.Background(), ResolveParams{
		CountryCode:    "JP",
		DataAmount:     ptr(500.0),
		DataUnit:       ptr("GB"),
		DurationInDays: ptr(12),
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchOutcomeClose, result.Outcome())
	require.Len(t, result.Plans(), 2)
	// longest coverage first, duration floor still honored
	assert.Equal(t, "jp-30", result.Plans()[0].ID)
	assert.Equal(t, "jp-15", result.Plans()[1].ID)
}

func TestResolve_NoMatchOnImpossibleDuration(t *testing.T) {
	catalog := &fakeCatalog{plans: japanCatalog()}
	svc := newTestService(catalog)

	result, err := svc.Resolve(context.Background(), ResolveParams{
		CountryCode:    "JP",
		DurationInDays: ptr(9999),
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchOutcomeNone, result.Outcome())
	assert.Empty(t, result.Plans())
}

func TestResolve_CodeContainsMatch(t *testing.T) {
	catalog := &fakeCatalog{plans: []models.Plan{
		{ID: "a", CountryCode: "JP", DataAmount: 5, DataUnit: "GB", DurationInDays: 10, Price: 19.99},
		{ID: "b", CountryCode: "APAC-JP", DataAmount: 5, DataUnit: "GB", DurationInDays: 10, Price: 21.99},
		{ID: "c", CountryCode: "FR", DataAmount: 5, DataUnit: "GB", DurationInDays: 10, Price: 18.99},
	}}
	svc := newTestService(catalog)

	result, err := svc.Resolve(context.Background(), ResolveParams{CountryCode: "JP"})
	require.NoError(t, err)

	assert.Equal(t, models.MatchOutcomeExact, result.Outcome())
	require.Len(t, result.Plans(), 2)
	for _, p := range result.Plans() {
		assert.Contains(t, p.CountryCode, "JP")
	}
}

func TestResolve_StrictErrorAborts(t *testing.T) {
	catalog := &fakeCatalog{searchErr: errors.New("connection refused")}
	svc := newTestService(catalog)

	_, err := svc.Resolve(context.Background(), ResolveParams{CountryCode: "JP"})
	require.Error(t, err)
	assert.Equal(t, 0, catalog.closestCalls)
}

func TestResolve_RelaxedErrorAborts(t *testing.T) {
	catalog := &fakeCatalog{plans: japanCatalog(), closestErr: errors.New("connection refused")}
	svc := newTestService(catalog)

	_, err := svc.Resolve(context.Background(), ResolveParams{
		CountryCode:    "JP",
		DurationInDays: ptr(12),
		DataAmount:     ptr(500.0),
	})
	require.Error(t, err)
}

func TestResolve_Deterministic(t *testing.T) {
	catalog := &fakeCatalog{plans: japanCatalog()}
	svc := newTestService(catalog)

	params := ResolveParams{CountryCode: "JP", DurationInDays: ptr(10)}

	first, err := svc.Resolve(context.Background(), params)
	require.NoError(t, err)
	second, err := svc.Resolve(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, first.Outcome(), second.Outcome())
	assert.Equal(t, first.Plans(), second.Plans())
}
