// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package activitylog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "logs", "activity.db"))
	require.NoError(t, err, "Open should create parent directories and schema")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestWriteAndQuery(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, Event{
		Type: TypeSearch, Page: "search", Action: "perovskite stability",
		Success: true, DurationMS: 420, SessionID: "s1",
	}))
	require.NoError(t, store.Write(ctx, Event{
		Type: TypeAICall, Action: "hypothesis", Success: true,
		SessionID: "s1", AIPrompt: "generate hypotheses", AIResponse: "three candidates", Tokens: 1200,
	}))

	events, total, err := store.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, TypeAICall, events[0].Type)
	assert.Equal(t, 1200, events[0].Tokens)
	assert.Equal(t, TypeSearch, events[1].Type)
	assert.Equal(t, int64(420), events[1].DurationMS)
	assert.False(t, events[1].Timestamp.IsZero(), "zero timestamps are filled at write time")
}

func TestQueryFilters(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	ok := true
	failed := false
	require.NoError(t, store.Write(ctx, Event{Type: TypeSearch, Success: true, SessionID: "s1"}))
	require.NoError(t, store.Write(ctx, Event{Type: TypeSearch, Success: false, SessionID: "s2", Error: "upstream 500"}))
	require.NoError(t, store.Write(ctx, Event{Type: TypeWorkflow, Success: true, SessionID: "s2"}))

	events, total, err := store.Query(ctx, Filter{Type: TypeSearch})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, events, 2)

	events, total, err = store.Query(ctx, Filter{Success: &failed})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, "upstream 500", events[0].Error)

	events, _, err = store.Query(ctx, Filter{SessionID: "s2", Success: &ok})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, TypeWorkflow, events[0].Type)
}

func TestQuerySinceAndPaging(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, store.Write(ctx, Event{Type: TypeSearch, Timestamp: old, Success: true}))
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Write(ctx, Event{Type: TypeSearch, Success: true}))
	}

	_, total, err := store.Query(ctx, Filter{Since: time.Now().UTC().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 5, total, "the 48h-old event falls outside Since")

	page, total, err := store.Query(ctx, Filter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, total, "total counts all matches, not the page")
	assert.Len(t, page, 2)
}

func TestStats(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, Event{Type: TypeSearch, Success: true, SessionID: "s1"}))
	require.NoError(t, store.Write(ctx, Event{Type: TypeSearch, Success: false, SessionID: "s1"}))
	require.NoError(t, store.Write(ctx, Event{Type: TypeAICall, Success: true, SessionID: "s2", Tokens: 800}))
	require.NoError(t, store.Write(ctx, Event{Type: TypeAICall, Success: true, SessionID: "s2", Tokens: 200}))

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalLogs)
	assert.Equal(t, 2, st.UniqueSessions)
	assert.InDelta(t, 0.75, st.SuccessRate, 0.001)
	assert.Equal(t, 2, st.AICalls)
	assert.Equal(t, 1000, st.TotalTokens)
}

func TestStatsEmptyLog(t *testing.T) {
	store := testStore(t)

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}
