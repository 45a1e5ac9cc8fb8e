package memory

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sage/pkg/models"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	store, err := NewStore(Config{Host: mr.Host(), Port: port, Depth: 3, TTL: time.Minute}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func turn(message, reply string) models.ConversationTurn {
	return models.ConversationTurn{UserMessage: message, ChatText: reply, CreatedAt: time.Now().UTC()}
}

func TestAppendAndRecent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", turn("Japan 10 days", "Here are two plans")))
	require.NoError(t, store.Append(ctx, "s1", turn("what about 10GB?", "Found one option")))

	turns, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	// oldest first so the prompt replays in order
	assert.Equal(t, "Japan 10 days", turns[0].UserMessage)
	assert.Equal(t, "what about 10GB?", turns[1].UserMessage)
}

func TestAppend_TrimsToDepth(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three", "four"} {
		require.NoError(t, store.Append(ctx, "s1", turn(msg, "ok")))
	}

	turns, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "two", turns[0].UserMessage)
	assert.Equal(t, "four", turns[2].UserMessage)
}

func TestAppend_RefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", turn("Japan 10 days", "ok")))
	assert.Equal(t, time.Minute, mr.TTL("sage:conversation:s1"))
}

func TestRecent_UnknownSessionIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	turns, err := store.Recent(context.Background(), "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRecent_LimitsToN(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", turn("one", "ok")))
	require.NoError(t, store.Append(ctx, "s1", turn("two", "ok")))
	require.NoError(t, store.Append(ctx, "s1", turn("three", "ok")))

	turns, err := store.Recent(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	// the two newest, still oldest first
	assert.Equal(t, "two", turns[0].UserMessage)
	assert.Equal(t, "three", turns[1].UserMessage)
}

func TestAppend_EmptySessionIsNoop(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, store.Append(context.Background(), "", turn("hello", "ok")))
	assert.Empty(t, mr.Keys())
}
