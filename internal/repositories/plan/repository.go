package plan

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sage/pkg/models"
)

// SearchFilter narrows a strict catalog search. Nil fields apply no filter;
// callers must never turn an absent intent field into a zero valued filter.
type SearchFilter struct {
	CountryCode    string
	DataAmount     *float64
	DataUnit       *string
	DurationInDays *int
	Limit          int
}

// Repository handles plan persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new plan repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Search retrieves plans satisfying every constraint in the filter, cheapest
// first. Duration is an exact match; data amount is a floor.
func (r *Repository) Search(ctx context.Context, filter SearchFilter) ([]models.Plan, error) {
	ctx, span := tracing.StartSpan(ctx, "plan.Repository.Search")
	defer span.End()

	query, args := buildSearchQuery(filter)
	var plans []models.Plan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to search plans")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search plans")
	}

	return plans, nil
}

func buildSearchQuery(filter SearchFilter) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "country_code", "data_amount", "data_unit", "duration_in_days", "price", "plan_option", "metadata", "created_at", "updated_at")
	sb.From("plans")

	where := []string{
		sb.Like("country_code", "%"+filter.CountryCode+"%"),
	}
	if filter.DataUnit != nil {
		// older feeds stored composite unit strings, so the substring guard
		// stays alongside the exact comparison
		where = append(where, sb.Like("data_unit", "%"+*filter.DataUnit+"%"))
		where = append(where, sb.Equal("data_unit", *filter.DataUnit))
	}
	if filter.DataAmount != nil {
		where = append(where, sb.GE("data_amount", *filter.DataAmount))
	}
	if filter.DurationInDays != nil {
		where = append(where, sb.Equal("duration_in_days", *filter.DurationInDays))
	}
	sb.Where(where...)
	sb.OrderBy("price ASC", "id ASC")
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}

	return sb.Build()
}

// SearchClosest retrieves fallback plans for a destination, ignoring data
// constraints and treating duration as a floor. Longest plans come first so
// the user is offered something that covers the whole trip.
func (r *Repository) SearchClosest(ctx context.Context, countryCode string, minDuration *int, limit int) ([]models.Plan, error) {
	ctx, span := tracing.StartSpan(ctx, "plan.Repository.SearchClosest")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "country_code", "data_amount", "data_unit", "duration_in_days", "price", "plan_option", "metadata", "created_at", "updated_at")
	sb.From("plans")

	where := []string{
		sb.Like("country_code", "%"+countryCode+"%"),
	}
	if minDuration != nil {
		where = append(where, sb.GE("duration_in_days", *minDuration))
	}
	sb.Where(where...)
	sb.OrderBy("duration_in_days DESC", "id ASC")
	if limit > 0 {
		sb.Limit(limit)
	}

	query, args := sb.Build()
	var plans []models.Plan
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to search closest plans")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to search closest plans")
	}

	return plans, nil
}

// ReplaceCountryPlans swaps a country's catalog for the given batch inside a
// single transaction. Rows missing from the batch are removed, the rest are
// upserted in place, so a re-delivered batch lands idempotently.
func (r *Repository) ReplaceCountryPlans(ctx context.Context, countryCode string, plans []models.Plan) error {
	ctx, span := tracing.StartSpan(ctx, "plan.Repository.ReplaceCountryPlans")
	defer span.End()

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin catalog transaction")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	ids := make([]any, 0, len(plans))
	for i := range plans {
		p := &plans[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		ids = append(ids, p.ID)
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("plans")
	if len(ids) > 0 {
		db.Where(
			db.Equal("country_code", countryCode),
			db.NotIn("id", ids...),
		)
	} else {
		db.Where(db.Equal("country_code", countryCode))
	}

	query, args := db.Build()
	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete stale plans")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace plans")
	}

	if len(plans) > 0 {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto("plans")
		ib.Cols("id", "country_code", "data_amount", "data_unit", "duration_in_days", "price", "plan_option", "metadata", "created_at", "updated_at")
		for _, p := range plans {
			ib.Values(p.ID, p.CountryCode, p.DataAmount, p.DataUnit, p.DurationInDays, p.Price, p.PlanOption, p.Metadata, p.CreatedAt, p.UpdatedAt)
		}

		query, args = ib.Build()
		query += " ON CONFLICT (id) DO UPDATE SET country_code = EXCLUDED.country_code, data_amount = EXCLUDED.data_amount, data_unit = EXCLUDED.data_unit, duration_in_days = EXCLUDED.duration_in_days, price = EXCLUDED.price, plan_option = EXCLUDED.plan_option, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at"

		if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert plans batch")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to replace plans")
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit plans batch")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"country_code": countryCode, "count": len(plans)}).Debug("Replaced country plans")
	return nil
}
