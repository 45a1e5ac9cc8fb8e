// Package catalogsync applies plan catalog updates published by the upstream
// pricing feed. Each message replaces the full plan set for one country.
package catalogsync

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// isNotFound checks if an error is an HTTP 404 Not Found error
func isNotFound(err error) bool {
	return httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound
}

// validateEntry rejects rows the resolver could never return.
func validateEntry(entry models.CatalogUpdateEntry) error {
	unit := strings.ToUpper(entry.DataUnit)
	if unit != "MB" && unit != "GB" {
		return fmt.Errorf("unsupported data unit %q", entry.DataUnit)
	}
	if entry.DataAmount <= 0 {
		return fmt.Errorf("data amount must be positive, got %v", entry.DataAmount)
	}
	if entry.DurationInDays <= 0 {
		return fmt.Errorf("duration must be positive, got %d", entry.DurationInDays)
	}
	if entry.Price < 0 {
		return fmt.Errorf("price must not be negative, got %v", entry.Price)
	}
	return nil
}

// CountryLookup verifies a catalog update targets a known country.
type CountryLookup interface {
	GetByCode(ctx context.Context, code string) (*models.Country, error)
}

// PlanWriter swaps a country's plan set for the incoming batch.
type PlanWriter interface {
	ReplaceCountryPlans(ctx context.Context, countryCode string, plans []models.Plan) error
}

// Handler consumes catalog update messages and writes them to the catalog.
type Handler struct {
	logger    ectologger.Logger
	countries CountryLookup
	plans     PlanWriter
}

// NewHandler creates a catalog sync handler.
func NewHandler(logger ectologger.Logger, countries CountryLookup, plans PlanWriter) *Handler {
	return &Handler{
		logger:    logger,
		countries: countries,
		plans:     plans,
	}
}

// HandleMessage applies one catalog update.
//
// Malformed payloads and unknown countries are logged and dropped; redelivery
// cannot fix them. Storage failures are returned so the message is redelivered.
func (h *Handler) HandleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "catalogsync.Handler.HandleMessage")
	defer span.End()

	log := h.logger.WithContext(ctx).WithFields(map[string]any{
		"topic":  msg.Topic,
		"offset": msg.Offset,
	})

	update, err := msg.ParseCatalogUpdate()
	if err != nil {
		log.WithError(err).Error("Failed to parse catalog update")
		metrics.RecordCatalogUpdate("malformed", 0)
		return nil
	}

	countryCode := strings.ToUpper(strings.TrimSpace(update.CountryCode))
	if countryCode == "" {
		log.Error("Catalog update has no country code")
		metrics.RecordCatalogUpdate("malformed", 0)
		return nil
	}
	log = log.WithFields(map[string]any{"country_code": countryCode})

	country, err := h.countries.GetByCode(ctx, countryCode)
	if err != nil {
		if isNotFound(err) {
			log.Warn("Catalog update for unknown country; dropping")
			metrics.RecordCatalogUpdate("unknown_country", 0)
			return nil
		}
		log.WithError(err).Error("Failed to look up country for catalog update")
		return err
	}

	plans := h.toPlans(ctx, country.Code, update.Plans)

	if err := h.plans.ReplaceCountryPlans(ctx, country.Code, plans); err != nil {
		log.WithError(err).Error("Failed to replace country plans")
		return err
	}

	log.WithFields(map[string]any{"plans": len(plans)}).Info("Catalog updated")
	metrics.RecordCatalogUpdate("ok", len(plans))
	return nil
}

// toPlans converts update entries into catalog rows, dropping entries that
// could never match a request.
func (h *Handler) toPlans(ctx context.Context, countryCode string, entries []models.CatalogUpdateEntry) []models.Plan {
	plans := make([]models.Plan, 0, len(entries))
	for i, entry := range entries {
		if err := validateEntry(entry); err != nil {
			h.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"country_code": countryCode,
				"entry":        i,
			}).Warn("Skipping invalid catalog entry")
			continue
		}

		plan := models.Plan{
			CountryCode:    countryCode,
			DataAmount:     entry.DataAmount,
			DataUnit:       strings.ToUpper(entry.DataUnit),
			DurationInDays: entry.DurationInDays,
			Price:          entry.Price,
			PlanOption:     entry.PlanOption,
		}
		if entry.ID != nil {
			plan.ID = *entry.ID
		}
		if entry.Metadata != nil {
			plan.Metadata.Data = entry.Metadata
		}
		plans = append(plans, plan)
	}
	return plans
}
