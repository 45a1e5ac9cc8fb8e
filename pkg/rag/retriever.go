// Package rag retrieves knowledge snippets that ground intent extraction.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Config contains configuration for the knowledge retriever.
type Config struct {
	Scheme    string // "http" or "https"
	Host      string // host:port of the weaviate instance
	APIKey    string // optional, empty means anonymous access
	ClassName string // class holding travel knowledge (default: "TravelKnowledge")
	TopK      int    // snippets folded into each prompt (default: 3)
}

// DefaultConfig returns sensible defaults for a local weaviate.
func DefaultConfig() Config {
	return Config{
		Scheme:    "http",
		ClassName: "TravelKnowledge",
		TopK:      3,
	}
}

// Retriever pulls destination knowledge near a raw chat message.
type Retriever struct {
	client *weaviate.Client
	cfg    Config
	logger ectologger.Logger
}

// NewRetriever creates a retriever backed by a weaviate instance.
func NewRetriever(cfg Config, logger ectologger.Logger) (*Retriever, error) {
	if cfg.Scheme == "" {
		cfg.Scheme = DefaultConfig().Scheme
	}
	if cfg.ClassName == "" {
		cfg.ClassName = DefaultConfig().ClassName
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}

	clientConfig := weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	}
	if cfg.APIKey != "" {
		clientConfig.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	return &Retriever{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// RetrieveContext returns up to limit knowledge snippets near the query text.
// A limit of zero or less falls back to the configured TopK.
func (r *Retriever) RetrieveContext(ctx context.Context, query string, limit int) ([]models.ContextDocument, error) {
	ctx, span := tracing.StartSpan(ctx, "rag.Retriever.RetrieveContext")
	defer span.End()

	if limit <= 0 {
		limit = r.cfg.TopK
	}

	result, err := r.client.GraphQL().Get().
		WithClassName(r.cfg.ClassName).
		WithNearText(
			r.client.GraphQL().NearTextArgBuilder().
				WithConcepts([]string{query}),
		).
		WithFields(
			graphql.Field{Name: "title"},
			graphql.Field{Name: "content"},
		).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Knowledge retrieval failed")
		return nil, fmt.Errorf("knowledge retrieval failed: %w", err)
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, gqlErr := range result.Errors {
			msgs = append(msgs, gqlErr.Message)
		}
		return nil, fmt.Errorf("knowledge retrieval failed: %s", strings.Join(msgs, "; "))
	}

	if result.Data == nil {
		return nil, nil
	}
	get, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	items, ok := get[r.cfg.ClassName].([]interface{})
	if !ok {
		return nil, nil
	}

	return parseItems(items), nil
}

// Ready reports whether the weaviate cluster can serve queries.
func (r *Retriever) Ready(ctx context.Context) (bool, error) {
	return r.client.Misc().ReadyChecker().Do(ctx)
}

func parseItems(items []interface{}) []models.ContextDocument {
	docs := make([]models.ContextDocument, 0, len(items))
	for _, item := range items {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		var doc models.ContextDocument
		if title, ok := itemMap["title"].(string); ok {
			doc.Title = title
		}
		if content, ok := itemMap["content"].(string); ok {
			doc.Content = content
		}
		if doc.Content != "" {
			docs = append(docs, doc)
		}
	}
	return docs
}
