package country

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/sage/pkg/models"
)

// Repository handles country persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new country repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByName retrieves a country by its stored display name. The lookup is an
// exact, case sensitive comparison against the seeded name.
func (r *Repository) GetByName(ctx context.Context, name string) (*models.Country, error) {
	ctx, span := tracing.StartSpan(ctx, "country.Repository.GetByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("code", "name", "created_at", "updated_at")
	sb.From("countries")
	sb.Where(sb.Equal("name", name))

	query, args := sb.Build()
	var country models.Country
	if err := r.db.GetContext(ctx, &country, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("country %s not found", name))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get country by name")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get country")
	}

	return &country, nil
}

// GetByCode retrieves a country by its code
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Country, error) {
	ctx, span := tracing.StartSpan(ctx, "country.Repository.GetByCode")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("code", "name", "created_at", "updated_at")
	sb.From("countries")
	sb.Where(sb.Equal("code", code))

	query, args := sb.Build()
	var country models.Country
	if err := r.db.GetContext(ctx, &country, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("country %s not found", code))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get country by code")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get country")
	}

	return &country, nil
}

// List retrieves all countries ordered by name
func (r *Repository) List(ctx context.Context) ([]models.Country, error) {
	ctx, span := tracing.StartSpan(ctx, "country.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("code", "name", "created_at", "updated_at")
	sb.From("countries")
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	var countries []models.Country
	if err := r.db.SelectContext(ctx, &countries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list countries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list countries")
	}

	return countries, nil
}
