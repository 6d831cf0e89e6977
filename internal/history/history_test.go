package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provbook/bookbuilder/internal/linkcheck"
	"github.com/provbook/bookbuilder/internal/site"
)

func testReport(id string, started time.Time) *site.BuildReport {
	return &site.BuildReport{
		BuildID:   id,
		Outcome:   site.OutcomeSuccess,
		StartedAt: started,
		Duration:  2 * time.Second,
		Pages:     12,
		References: []linkcheck.Warning{
			{SourcePath: "docs/a.md", Target: "/docs/missing/"},
		},
		StageDurations: map[string]time.Duration{"load_content": time.Millisecond},
	}
}

func TestStore_RecordAndList(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	require.NoError(t, store.Record(ctx, testReport("b-1", base)))
	require.NoError(t, store.Record(ctx, testReport("b-2", base.Add(time.Minute))))

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b-2", entries[0].BuildID)
	assert.Equal(t, "b-1", entries[1].BuildID)
	assert.Equal(t, 12, entries[0].Pages)
	assert.Equal(t, 1, entries[0].Warnings)
}

func TestStore_GetRoundTripsReport(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	original := testReport("b-9", time.Now())
	require.NoError(t, store.Record(ctx, original))

	got, err := store.Get(ctx, "b-9")
	require.NoError(t, err)
	assert.Equal(t, original.BuildID, got.BuildID)
	assert.Equal(t, original.Pages, got.Pages)
	require.Len(t, got.References, 1)
	assert.Equal(t, "/docs/missing/", got.References[0].Target)
}

func TestStore_Prune(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, testReport(
			"b-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))))
	}

	require.NoError(t, store.Prune(ctx, 2))

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b-e", entries[0].BuildID)
	assert.Equal(t, "b-d", entries[1].BuildID)
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestStore_ListLimitDefault(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
