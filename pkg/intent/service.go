// Package intent turns free text travel requests into structured intents
// using an LLM, grounded with retrieved knowledge and recent conversation.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Ramsey-B/sage/pkg/metrics"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Generator produces a JSON object reply for a prompt pair.
type Generator interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Retriever finds knowledge snippets near a message.
type Retriever interface {
	RetrieveContext(ctx context.Context, query string, limit int) ([]models.ContextDocument, error)
}

// Recall reads recent conversation turns for a session.
type Recall interface {
	Recent(ctx context.Context, sessionID string, n int) ([]models.ConversationTurn, error)
}

// Config contains configuration for the extraction service.
type Config struct {
	ContextTopK  int // knowledge snippets folded into each prompt (default: 3)
	HistoryDepth int // conversation turns folded into each prompt (default: 5)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ContextTopK:  3,
		HistoryDepth: 5,
	}
}

// fallbackChatText covers the rare reply where the model filled the filters
// but skipped the conversational text.
const fallbackChatText = "Got it, let me see what plans are available."

// Service extracts structured intents from raw messages.
type Service struct {
	log       ectologger.Logger
	generator Generator
	retriever Retriever
	recall    Recall
	cfg       Config
}

// NewService creates a new extraction service. retriever and recall may be
// nil; extraction then runs without grounding context.
func NewService(log ectologger.Logger, generator Generator, retriever Retriever, recall Recall, cfg Config) *Service {
	if cfg.ContextTopK <= 0 {
		cfg.ContextTopK = DefaultConfig().ContextTopK
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = DefaultConfig().HistoryDepth
	}
	return &Service{
		log:       log,
		generator: generator,
		retriever: retriever,
		recall:    recall,
		cfg:       cfg,
	}
}

// Extract reads one message into an Intent.
//
// Purpose: Produce filters the catalog can trust, plus a reply the widget can
// always render.
// Outcome: Fields the message never stated stay nil. An error means the
// reading itself failed; callers must not fall back to an empty intent, that
// would turn a failed reading into a catalog wide scan.
func (s *Service) Extract(ctx context.Context, sessionID, message string) (models.Intent, error) {
	ctx, span := tracing.StartSpan(ctx, "intent.Service.Extract")
	defer span.End()

	start := time.Now()
	log := s.log.WithContext(ctx).WithFields(map[string]any{"session_id": sessionID})

	systemPrompt := s.buildSystemPrompt(ctx, sessionID, message)

	content, err := s.generator.CompleteJSON(ctx, systemPrompt, message)
	if err != nil {
		log.WithError(err).Error("Intent generation failed")
		metrics.RecordExtraction("generation_failed", time.Since(start).Seconds())
		return models.Intent{}, httperror.WrapError(http.StatusBadGateway, err)
	}

	intent, err := parseIntent(content)
	if err != nil {
		log.WithError(err).WithFields(map[string]any{"content": content}).Error("Intent response rejected")
		metrics.RecordExtraction("invalid_response", time.Since(start).Seconds())
		return models.Intent{}, httperror.WrapError(http.StatusBadGateway, err)
	}

	metrics.RecordExtraction("ok", time.Since(start).Seconds())
	return intent, nil
}

// buildSystemPrompt assembles instructions, schema, retrieved knowledge and
// conversation history. Grounding failures degrade the prompt, they never
// fail the extraction.
func (s *Service) buildSystemPrompt(ctx context.Context, sessionID, message string) string {
	schemaJSON, _ := json.MarshalIndent(extractionSchema, "", "  ")

	var b strings.Builder
	b.WriteString("You are an assistant for prepaid travel data plans. Read the user's message and respond with a single JSON object matching this schema. The field descriptions tell you how to fill each field. Use null for anything the message does not state; never guess and never fill defaults.\n\n")
	b.WriteString("Schema:\n")
	b.Write(schemaJSON)
	b.WriteString("\n")

	if s.retriever != nil {
		docs, err := s.retriever.RetrieveContext(ctx, message, s.cfg.ContextTopK)
		if err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("Context retrieval failed; extracting without it")
		}
		if len(docs) > 0 {
			b.WriteString("\nBackground knowledge:\n")
			for _, doc := range docs {
				if doc.Title != "" {
					b.WriteString("- " + doc.Title + ": " + doc.Content + "\n")
				} else {
					b.WriteString("- " + doc.Content + "\n")
				}
			}
		}
	}

	if s.recall != nil && sessionID != "" {
		turns, err := s.recall.Recent(ctx, sessionID, s.cfg.HistoryDepth)
		if err != nil {
			s.log.WithContext(ctx).WithError(err).Warn("Conversation history unavailable; extracting without it")
		}
		if len(turns) > 0 {
			b.WriteString("\nConversation so far:\n")
			for _, turn := range turns {
				b.WriteString("user: " + turn.UserMessage + "\n")
				b.WriteString("assistant: " + turn.ChatText + "\n")
			}
		}
	}

	return b.String()
}

type intentPayload struct {
	CountryName    *string  `json:"country_name"`
	CountryCode    *string  `json:"country_code"`
	DataAmount     *float64 `json:"data_amount"`
	DataUnit       *string  `json:"data_unit"`
	DurationInDays *int     `json:"duration_in_days"`
	ChatResponse   *string  `json:"chat_response"`
}

func parseIntent(content string) (models.Intent, error) {
	schemaLoader := gojsonschema.NewGoLoader(extractionSchema)
	documentLoader := gojsonschema.NewStringLoader(content)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return models.Intent{}, fmt.Errorf("intent response is not a json object: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return models.Intent{}, fmt.Errorf("intent response violates schema: %v", errs)
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return models.Intent{}, fmt.Errorf("intent response is not a json object: %w", err)
	}

	return normalize(payload), nil
}

func normalize(payload intentPayload) models.Intent {
	intent := models.Intent{
		CountryName:    trimmed(payload.CountryName),
		CountryCode:    trimmed(payload.CountryCode),
		DataAmount:     payload.DataAmount,
		DataUnit:       trimmed(payload.DataUnit),
		DurationInDays: payload.DurationInDays,
		ChatText:       fallbackChatText,
	}
	if payload.ChatResponse != nil && strings.TrimSpace(*payload.ChatResponse) != "" {
		intent.ChatText = strings.TrimSpace(*payload.ChatResponse)
	}
	return intent
}

// trimmed trims whitespace and collapses empty strings to nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
