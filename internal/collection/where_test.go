package collection

import (
	"context"
	"testing"
	"time"

	"github.com/gazra/gazra/backend/go-services/internal/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhereReadsTimestampFields(t *testing.T) {
	f, err := ParseWhere("createdAt>=2000-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), f.Value)

	f, err = ParseWhere("updatedAt<2025-04-01T18:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 1, 16, 0, 0, 0, time.UTC), f.Value)

	_, err = ParseWhere("createdAt>=yesterday")
	require.Error(t, err)
}

func TestParseWhereLeavesOtherFieldsAsText(t *testing.T) {
	f, err := ParseWhere("date>=2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", f.Value)

	f, err = ParseWhere("partySize==2")
	require.NoError(t, err)
	assert.Equal(t, "2", f.Value)
}

func TestParseWhereMatchesStoredTimestamps(t *testing.T) {
	ctx := context.Background()
	c := MustNew(docstore.NewMemoryStore(), "contactMessages")
	require.True(t, c.Create(ctx, Record{"name": "Asha"}).Success)

	since, err := ParseWhere("createdAt>=2000-01-01")
	require.NoError(t, err)
	res := c.List(ctx, since)
	require.True(t, res.Success)
	assert.Len(t, res.Data, 1)

	later, err := ParseWhere("createdAt>=time:2999-01-01")
	require.NoError(t, err)
	res = c.List(ctx, later)
	require.True(t, res.Success)
	assert.Empty(t, res.Data)
}
