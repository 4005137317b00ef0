package collection

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gazra/gazra/backend/go-services/internal/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookings(t *testing.T) *Collection {
	t.Helper()
	c, err := New(docstore.NewMemoryStore(), "cafeBookings")
	require.NoError(t, err)
	return c
}

func TestNewRejectsEmptyName(t *testing.T) {
	_, err := New(docstore.NewMemoryStore(), "")
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = New(nil, "events")
	require.Error(t, err)
}

func TestCreateThenGetOne(t *testing.T) {
	c := newBookings(t)
	ctx := context.Background()
	payload := Record{"name": "Asha", "partySize": "2"}

	res := c.Create(ctx, payload)
	require.True(t, res.Success, res.Error)
	require.NotEmpty(t, res.ID)

	got := c.GetOne(ctx, res.ID)
	require.True(t, got.Success, got.Error)
	for k, v := range payload {
		assert.Equal(t, v, got.Data[k], k)
	}
	assert.Equal(t, res.ID, got.Data[FieldID])
	created, ok := got.Data[FieldCreatedAt].(time.Time)
	require.True(t, ok)
	updated, ok := got.Data[FieldUpdatedAt].(time.Time)
	require.True(t, ok)
	assert.Equal(t, created, updated)
}

func TestCreateOverwritesSystemFields(t *testing.T) {
	c := newBookings(t)
	ctx := context.Background()
	bogus := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

	res := c.Create(ctx, Record{"name": "Asha", "createdAt": bogus, "updatedAt": "yesterday", "id": "mine"})
	require.True(t, res.Success)
	require.NotEqual(t, "mine", res.ID)

	got := c.GetOne(ctx, res.ID)
	require.True(t, got.Success)
	assert.NotEqual(t, bogus, got.Data[FieldCreatedAt])
	assert.IsType(t, time.Time{}, got.Data[FieldUpdatedAt])
	assert.Equal(t, res.ID, got.Data[FieldID])
}

func TestUpdateMergesAndRefreshesUpdatedAt(t *testing.T) {
	c := newBookings(t)
	ctx := context.Background()
	res := c.Create(ctx, Record{"name": "Asha", "date": "2025-04-01"})
	require.True(t, res.Success)

	up := c.Update(ctx, res.ID, Record{"status": "confirmed"})
	require.True(t, up.Success, up.Error)

	got := c.GetOne(ctx, res.ID)
	require.True(t, got.Success)
	assert.Equal(t, "confirmed", got.Data["status"])
	assert.Equal(t, "Asha", got.Data["name"])
	assert.Equal(t, "2025-04-01", got.Data["date"])
	created := got.Data[FieldCreatedAt].(time.Time)
	updated := got.Data[FieldUpdatedAt].(time.Time)
	assert.True(t, updated.After(created), "updatedAt %v should be after createdAt %v", updated, created)
}

func TestUpdateCannotRewriteCreatedAt(t *testing.T) {
	c := newBookings(t)
	ctx := context.Background()
	res := c.Create(ctx, Record{"name": "Asha"})
	before := c.GetOne(ctx, res.ID).Data[FieldCreatedAt]

	require.True(t, c.Update(ctx, res.ID, Record{"createdAt": time.Now().Add(time.Hour)}).Success)
	assert.Equal(t, before, c.GetOne(ctx, res.ID).Data[FieldCreatedAt])
}

func TestUpdateMissingRecord(t *testing.T) {
	c := newBookings(t)
	res := c.Update(context.Background(), "does-not-exist", Record{"status": "confirmed"})
	require.False(t, res.Success)
	assert.Equal(t, NotFoundMessage, res.Error)
	assert.True(t, res.NotFound())
	assert.ErrorIs(t, res.Err(), ErrNotFound)

	// no record was created as a side effect
	list := c.List(context.Background())
	require.True(t, list.Success)
	assert.Empty(t, list.Data)
}

func TestDeleteThenGetOne(t *testing.T) {
	c := newBookings(t)
	ctx := context.Background()
	res := c.Create(ctx, Record{"name": "Asha"})
	require.True(t, res.Success)

	require.True(t, c.Delete(ctx, res.ID).Success)
	got := c.GetOne(ctx, res.ID)
	assert.False(t, got.Success)
	assert.Equal(t, NotFoundMessage, got.Error)
	assert.Nil(t, got.Data)
}

func TestGetOneNeverCreated(t *testing.T) {
	c := newBookings(t)
	for _, id := range []string{"nope", ""} {
		got := c.GetOne(context.Background(), id)
		assert.False(t, got.Success)
		assert.Equal(t, NotFoundMessage, got.Error)
	}
}

func TestListMembership(t *testing.T) {
	c := newBookings(t)
	ctx := context.Background()
	ids := map[string]bool{}
	for _, n := range []string{"Asha", "Ben", "Chen", "Dara"} {
		res := c.Create(ctx, Record{"name": n})
		require.True(t, res.Success)
		ids[res.ID] = true
	}
	var removed string
	for id := range ids {
		removed = id
		break
	}
	require.True(t, c.Delete(ctx, removed).Success)
	delete(ids, removed)

	list := c.List(ctx)
	require.True(t, list.Success)
	got := map[string]bool{}
	for _, r := range list.Data {
		got[r[FieldID].(string)] = true
	}
	assert.Equal(t, ids, got)
}

func TestListWithFilters(t *testing.T) {
	c := newBookings(t)
	ctx := context.Background()
	for _, r := range []Record{
		{"name": "Asha", "partySize": 2, "status": "pending"},
		{"name": "Ben", "partySize": 6, "status": "confirmed"},
		{"name": "Chen", "partySize": 4, "status": "pending"},
	} {
		require.True(t, c.Create(ctx, r).Success)
	}

	list := c.List(ctx, docstore.Where("status", docstore.OpEqual, "pending"), docstore.OrderBy("partySize", docstore.Desc))
	require.True(t, list.Success)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "Chen", list.Data[0]["name"])
	assert.Equal(t, "Asha", list.Data[1]["name"])
}

func TestListBadFilterIsAResult(t *testing.T) {
	c := newBookings(t)
	list := c.List(context.Background(), docstore.Where("", docstore.OpEqual, 1))
	assert.False(t, list.Success)
	assert.NotEmpty(t, list.Error)
	assert.Equal(t, list.Error, c.LastError())
}

func TestCafeBookingScenario(t *testing.T) {
	c := newBookings(t)
	ctx := context.Background()
	booking := Record{"name": "Asha", "date": "2025-04-01", "time": "18:00", "partySize": "2"}

	created := c.Create(ctx, booking)
	require.True(t, created.Success)
	require.NotEmpty(t, created.ID)

	list := c.List(ctx)
	require.True(t, list.Success)
	matching := 0
	for _, r := range list.Data {
		if r["name"] == "Asha" {
			matching++
		}
	}
	assert.Equal(t, 1, matching)

	require.True(t, c.Update(ctx, created.ID, Record{"status": "confirmed"}).Success)
	got := c.GetOne(ctx, created.ID)
	require.True(t, got.Success)
	for k, v := range booking {
		assert.Equal(t, v, got.Data[k], k)
	}
	assert.Equal(t, "confirmed", got.Data["status"])

	require.True(t, c.Delete(ctx, created.ID).Success)
	list = c.List(ctx)
	require.True(t, list.Success)
	for _, r := range list.Data {
		assert.NotEqual(t, created.ID, r[FieldID])
	}
}

// failingStore returns the same error from every call.
type failingStore struct {
	docstore.Store
	err error
}

func (f failingStore) Add(context.Context, string, docstore.Fields) (string, error) {
	return "", f.err
}
func (f failingStore) Merge(context.Context, string, string, docstore.Fields) error { return f.err }
func (f failingStore) Delete(context.Context, string, string) error                { return f.err }
func (f failingStore) Get(context.Context, string, string) (docstore.Document, error) {
	return docstore.Document{}, f.err
}
func (f failingStore) Query(context.Context, string, ...docstore.Filter) ([]docstore.Document, error) {
	return nil, f.err
}

func TestStoreFailuresBecomeResults(t *testing.T) {
	c, err := New(failingStore{err: errors.New("permission denied")}, "events")
	require.NoError(t, err)
	ctx := context.Background()

	results := []Result[Record]{
		c.Create(ctx, Record{"title": "x"}),
		c.Update(ctx, "id", Record{"title": "y"}),
		c.Delete(ctx, "id"),
		c.GetOne(ctx, "id"),
	}
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, "permission denied", r.Error)
		assert.EqualError(t, r.Err(), "permission denied")
	}
	list := c.List(ctx)
	assert.False(t, list.Success)
	assert.Equal(t, "permission denied", list.Error)
	assert.Equal(t, "permission denied", c.LastError())
	assert.False(t, c.Loading())
}

// blockingStore holds Query until release is closed.
type blockingStore struct {
	*docstore.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (b blockingStore) Query(ctx context.Context, col string, f ...docstore.Filter) ([]docstore.Document, error) {
	close(b.entered)
	<-b.release
	return b.MemoryStore.Query(ctx, col, f...)
}

func TestLoadingFlag(t *testing.T) {
	bs := blockingStore{MemoryStore: docstore.NewMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	c, err := New(bs, "events")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.List(context.Background())
	}()
	<-bs.entered
	assert.True(t, c.Loading())
	close(bs.release)
	wg.Wait()
	assert.False(t, c.Loading())
	assert.Empty(t, c.LastError())
}

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(Result[Record]{Success: true, ID: "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"id":"abc"}`, string(b))

	b, err = json.Marshal(Result[[]Record]{Success: true, Data: []Record{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[]}`, string(b))

	b, err = json.Marshal(Result[Record]{Success: false, Error: NotFoundMessage})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":"Document not found"}`, string(b))
}
