// Package chat orchestrates the conversational pipeline: extract a structured
// intent from the raw message, resolve the country, search the plan catalog,
// and compose the response envelope the widget renders.
package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/pkg/matching"
	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// IntentExtractor turns a free-text message into a structured intent.
type IntentExtractor interface {
	Extract(ctx context.Context, sessionID, message string) (models.Intent, error)
}

// CountryLookup resolves extracted country names against the reference set.
type CountryLookup interface {
	GetByName(ctx context.Context, name string) (*models.Country, error)
}

// MatchResolver searches the plan catalog for a structured intent.
type MatchResolver interface {
	Resolve(ctx context.Context, params matching.ResolveParams) (models.MatchResult, error)
}

// ConversationStore keeps recent turns so follow-up messages extract with context.
type ConversationStore interface {
	Append(ctx context.Context, sessionID string, turn models.ConversationTurn) error
}

// isNotFound checks if an error is an HTTP 404 Not Found error
func isNotFound(err error) bool {
	return httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound
}

// Service runs one message through the full pipeline. Stages run sequentially;
// a failure at any stage aborts the request without retrying, since a repeated
// generation call can produce a different intent for the same text.
type Service struct {
	logger    ectologger.Logger
	extractor IntentExtractor
	countries CountryLookup
	matcher   MatchResolver
	memory    ConversationStore
}

// NewService creates the chat pipeline. memory may be nil when conversation
// history is disabled.
func NewService(
	logger ectologger.Logger,
	extractor IntentExtractor,
	countries CountryLookup,
	matcher MatchResolver,
	memory ConversationStore,
) *Service {
	return &Service{
		logger:    logger,
		extractor: extractor,
		countries: countries,
		matcher:   matcher,
		memory:    memory,
	}
}

// HandleMessage resolves one user message into a response envelope.
//
// Extraction and catalog failures are returned as errors for the transport
// layer to render. An unknown or missing country and an empty result set are
// normal outcomes, rendered as envelopes with success=false.
func (s *Service) HandleMessage(ctx context.Context, sessionID, message string) (models.ChatResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "Chat.HandleMessage")
	defer span.End()

	start := time.Now()
	log := s.logger.WithContext(ctx).WithFields(map[string]any{"session_id": sessionID})

	intent, err := s.extractor.Extract(ctx, sessionID, message)
	if err != nil {
		metrics.RecordChatRequest("extraction_failed", time.Since(start).Seconds())
		return models.ChatResponse{}, err
	}

	if !intent.HasCountryName() {
		log.Debug("Message names no country; skipping catalog search")
		return s.finish(ctx, log, sessionID, message, "country_not_found", start,
			Compose(nil, models.NoMatch(), intent.ChatText)), nil
	}

	country, err := s.countries.GetByName(ctx, *intent.CountryName)
	if err != nil {
		if isNotFound(err) {
			log.WithFields(map[string]any{"country_name": *intent.CountryName}).Info("Country is not in the reference set")
			return s.finish(ctx, log, sessionID, message, "country_not_found", start,
				Compose(nil, models.NoMatch(), intent.ChatText)), nil
		}
		metrics.RecordChatRequest("error", time.Since(start).Seconds())
		return models.ChatResponse{}, err
	}

	match, err := s.matcher.Resolve(ctx, matching.ResolveParams{
		CountryCode:    country.Code,
		DataAmount:     intent.DataAmount,
		DataUnit:       intent.DataUnit,
		DurationInDays: intent.DurationInDays,
	})
	if err != nil {
		metrics.RecordChatRequest("error", time.Since(start).Seconds())
		return models.ChatResponse{}, err
	}

	return s.finish(ctx, log, sessionID, message, outcomeLabel(match), start,
		Compose(country, match, intent.ChatText)), nil
}

// finish records the turn in conversation memory and emits request metrics.
// Memory writes are best effort; a failed write never fails the request.
func (s *Service) finish(
	ctx context.Context,
	log ectologger.Logger,
	sessionID, message, outcome string,
	start time.Time,
	resp models.ChatResponse,
) models.ChatResponse {
	if s.memory != nil && sessionID != "" {
		turn := models.ConversationTurn{
			UserMessage: message,
			ChatText:    resp.ChatText,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.memory.Append(ctx, sessionID, turn); err != nil {
			log.WithError(err).Warn("Failed to record conversation turn")
		}
	}
	metrics.RecordChatRequest(outcome, time.Since(start).Seconds())
	return resp
}

func outcomeLabel(match models.MatchResult) string {
	switch match.Outcome() {
	case models.MatchOutcomeExact:
		return "exact"
	case models.MatchOutcomeClose:
		return "close"
	default:
		return "no_match"
	}
}
