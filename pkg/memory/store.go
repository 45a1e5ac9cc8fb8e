// Package memory keeps short lived conversation history in Redis. History is
// best effort: losing it degrades follow up answers, nothing else.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Config holds conversation memory configuration
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration // session expiry, refreshed on every append (default: 30m)
	Depth    int           // turns kept per session (default: 10)
}

// Store keeps per session conversation turns in a capped Redis list.
type Store struct {
	rdb    *redis.Client
	cfg    Config
	logger ectologger.Logger
}

// NewStore creates a new conversation store and verifies the connection.
func NewStore(cfg Config, logger ectologger.Logger) (*Store, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Depth <= 0 {
		cfg.Depth = 10
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Infof("Connected to Redis at %s", addr)

	return &Store{
		rdb:    rdb,
		cfg:    cfg,
		logger: logger,
	}, nil
}

func sessionKey(sessionID string) string {
	return "sage:conversation:" + sessionID
}

// Append records one exchange for the session and refreshes its expiry.
func (s *Store) Append(ctx context.Context, sessionID string, turn models.ConversationTurn) error {
	ctx, span := tracing.StartSpan(ctx, "memory.Store.Append")
	defer span.End()

	if sessionID == "" {
		return nil
	}

	payload, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	key := sessionKey(sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(s.cfg.Depth-1))
	pipe.Expire(ctx, key, s.cfg.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to append conversation turn")
		return err
	}

	return nil
}

// Recent returns up to n most recent turns, oldest first, so they can be
// replayed straight into a prompt. A session with no history is empty, not
// an error.
func (s *Store) Recent(ctx context.Context, sessionID string, n int) ([]models.ConversationTurn, error) {
	ctx, span := tracing.StartSpan(ctx, "memory.Store.Recent")
	defer span.End()

	if sessionID == "" || n <= 0 {
		return nil, nil
	}

	entries, err := s.rdb.LRange(ctx, sessionKey(sessionID), 0, int64(n-1)).Result()
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to read conversation history")
		return nil, err
	}

	turns := make([]models.ConversationTurn, 0, len(entries))
	// LPush stores newest first; walk backwards to replay in order
	for i := len(entries) - 1; i >= 0; i-- {
		var turn models.ConversationTurn
		if err := json.Unmarshal([]byte(entries[i]), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

// Ping checks if Redis is reachable
func (s *Store) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.rdb.Close()
}
