package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gazra/gazra/backend/go-services/internal/docstore"
	"github.com/gazra/gazra/backend/go-services/internal/site"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteEngine(t *testing.T) (*gin.Engine, *docstore.MemoryStore, *CollectionsHandler) {
	t.Helper()
	store := docstore.NewMemoryStore()
	h := NewCollectionsHandler(store)
	h.now = func() time.Time { return time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC) }
	g := gin.New()
	h.RegisterPublic(g, nil)
	h.RegisterAdmin(g.Group("/admin/api"))
	return g, store, h
}

func doJSON(g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAdminCRUD(t *testing.T) {
	g, _, _ := newSiteEngine(t)

	// CREATE
	w := doJSON(g, http.MethodPost, "/admin/api/events", `{"title":"Open Mic","date":"2026-06-01","time":"19:00","id":"forged"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cr := decode(t, w)
	assert.Equal(t, true, cr["success"])
	id, _ := cr["id"].(string)
	require.NotEmpty(t, id)
	assert.NotEqual(t, "forged", id)
	assert.NotContains(t, cr, "data")

	// GET
	w = doJSON(g, http.MethodGet, "/admin/api/events/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	data := got["data"].(map[string]interface{})
	assert.Equal(t, id, data["id"])
	assert.Equal(t, "Open Mic", data["title"])
	assert.NotEmpty(t, data["createdAt"])
	assert.NotEmpty(t, data["updatedAt"])

	// PATCH keeps untouched fields
	w = doJSON(g, http.MethodPatch, "/admin/api/events/"+id, `{"location":"Cafe"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(g, http.MethodGet, "/admin/api/events/"+id, "")
	data = decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Cafe", data["location"])
	assert.Equal(t, "Open Mic", data["title"])

	// LIST
	w = doJSON(g, http.MethodGet, "/admin/api/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["data"].([]interface{})
	require.Len(t, list, 1)

	// DELETE twice: both succeed
	w = doJSON(g, http.MethodDelete, "/admin/api/events/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(g, http.MethodDelete, "/admin/api/events/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	// GET after delete
	w = doJSON(g, http.MethodGet, "/admin/api/events/"+id, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	nf := decode(t, w)
	assert.Equal(t, false, nf["success"])
	assert.Equal(t, "Document not found", nf["error"])

	// empty list still carries data: []
	w = doJSON(g, http.MethodGet, "/admin/api/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestAdminUpdateMissingRecord(t *testing.T) {
	g, _, _ := newSiteEngine(t)
	w := doJSON(g, http.MethodPatch, "/admin/api/cafeBookings/nope", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Document not found", decode(t, w)["error"])

	w = doJSON(g, http.MethodPatch, "/admin/api/cafeBookings/nope", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCreateValidates(t *testing.T) {
	g, _, _ := newSiteEngine(t)
	w := doJSON(g, http.MethodPost, "/admin/api/events", `{"date":"2026-06-01"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestAdminListNewestFirstAndFilters(t *testing.T) {
	g, _, _ := newSiteEngine(t)
	for _, n := range []string{"Ana", "Ben", "Cleo"} {
		w := doJSON(g, http.MethodPost, "/admin/api/volunteers", `{"name":"`+n+`","email":"`+strings.ToLower(n)+`@example.org"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doJSON(g, http.MethodGet, "/admin/api/volunteers", "")
	list := decode(t, w)["data"].([]interface{})
	require.Len(t, list, 3)
	assert.Equal(t, "Cleo", list[0].(map[string]interface{})["name"])
	assert.Equal(t, "Ana", list[2].(map[string]interface{})["name"])

	w = doJSON(g, http.MethodGet, "/admin/api/volunteers?orderBy=name&limit=2", "")
	list = decode(t, w)["data"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].(map[string]interface{})["name"])

	w = doJSON(g, http.MethodGet, "/admin/api/volunteers?where=name==Ben", "")
	list = decode(t, w)["data"].([]interface{})
	require.Len(t, list, 1)

	w = doJSON(g, http.MethodGet, "/admin/api/volunteers?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(g, http.MethodGet, "/admin/api/volunteers?where=garbage", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownCollection(t *testing.T) {
	g, _, _ := newSiteEngine(t)
	assert.Equal(t, http.StatusNotFound, doJSON(g, http.MethodGet, "/admin/api/users", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(g, http.MethodGet, "/api/users", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(g, http.MethodPost, "/api/users", `{}`).Code)
}

func TestPublicReadAccess(t *testing.T) {
	g, store, _ := newSiteEngine(t)
	ctx := context.Background()
	_, err := store.Add(ctx, site.CafeMenu, docstore.Fields{"name": "Hummus", "price": 18.5, "available": true})
	require.NoError(t, err)
	bookingID, err := store.Add(ctx, site.CafeBookings, docstore.Fields{"name": "Dana"})
	require.NoError(t, err)

	w := doJSON(g, http.MethodGet, "/api/cafeMenu", "")
	require.Equal(t, http.StatusOK, w.Code)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Hummus", items[0]["name"])
	assert.NotEmpty(t, items[0]["id"])

	// bookings hold personal data and stay private
	assert.Equal(t, http.StatusNotFound, doJSON(g, http.MethodGet, "/api/cafeBookings", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(g, http.MethodGet, "/api/cafeBookings/"+bookingID, "").Code)

	w = doJSON(g, http.MethodGet, "/api/cafeMenu/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Document not found")
}

func TestPublicUpcomingEvents(t *testing.T) {
	g, store, _ := newSiteEngine(t)
	ctx := context.Background()
	for _, e := range []docstore.Fields{
		{"title": "Past", "date": "2026-05-01", "time": "18:00"},
		{"title": "Late", "date": "2026-05-10", "time": "20:00"},
		{"title": "Early", "date": "2026-05-10", "time": "10:00"},
		{"title": "Next month", "date": "2026-06-02", "time": "12:00"},
	} {
		_, err := store.Add(ctx, site.Events, e)
		require.NoError(t, err)
	}

	w := doJSON(g, http.MethodGet, "/api/events/upcoming", "")
	require.Equal(t, http.StatusOK, w.Code)
	var events []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 3)
	assert.Equal(t, "Early", events[0]["title"])
	assert.Equal(t, "Late", events[1]["title"])
	assert.Equal(t, "Next month", events[2]["title"])

	w = doJSON(g, http.MethodGet, "/api/events/upcoming?limit=1", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
}

func TestSubmitBooking(t *testing.T) {
	g, store, _ := newSiteEngine(t)
	body := `{"name":"Dana","email":"dana@example.org","date":"2026-05-20","time":"12:30","partySize":"4","status":"confirmed"}`
	w := doJSON(g, http.MethodPost, "/api/cafeBookings", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	doc, err := store.Get(context.Background(), site.CafeBookings, id)
	require.NoError(t, err)
	// visitors cannot confirm their own booking
	assert.Equal(t, site.StatusPending, doc.Fields["status"])
	assert.Equal(t, "4", doc.Fields["partySize"])
	assert.IsType(t, time.Time{}, doc.Fields["createdAt"])
}

func TestSubmitValidation(t *testing.T) {
	g, _, _ := newSiteEngine(t)
	w := doJSON(g, http.MethodPost, "/api/cafeBookings", `{"name":"Dana","email":"not-an-email","date":"2026-05-20","time":"12:30","partySize":"4"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(g, http.MethodPost, "/api/contactMessages", `{"name":"Dana","email":"dana@example.org"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(g, http.MethodPost, "/api/events", `{"title":"x","date":"2026-05-20"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSubmitEnrollment(t *testing.T) {
	g, store, _ := newSiteEngine(t)
	ctx := context.Background()
	courseID, err := store.Add(ctx, site.Courses, docstore.Fields{"title": "Arabic for beginners", "capacity": int64(1)})
	require.NoError(t, err)

	enroll := func(name string) *httptest.ResponseRecorder {
		return doJSON(g, http.MethodPost, "/api/enrollments",
			`{"courseId":"`+courseID+`","name":"`+name+`","email":"`+name+`@example.org"}`)
	}
	require.Equal(t, http.StatusCreated, enroll("rami").Code)
	assert.Equal(t, http.StatusConflict, enroll("noa").Code)

	w := doJSON(g, http.MethodPost, "/api/enrollments", `{"courseId":"nope","name":"x","email":"x@example.org"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "course does not exist")
}

func TestAdminWhereMatchesSubmittedBooking(t *testing.T) {
	g, _, _ := newSiteEngine(t)
	body := `{"name":"Asha","email":"asha@example.org","phone":"9876543210","date":"2026-05-20","time":"19:00","partySize":"2"}`
	w := doJSON(g, http.MethodPost, "/api/cafeBookings", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	for _, where := range []string{"partySize==2", "phone==9876543210", "createdAt>=2000-01-01", "name==Asha", `partySize=="2"`} {
		w = doJSON(g, http.MethodGet, "/admin/api/cafeBookings?where="+url.QueryEscape(where), "")
		require.Equal(t, http.StatusOK, w.Code, where)
		list := decode(t, w)["data"].([]interface{})
		assert.Len(t, list, 1, where)
	}

	// typed operands compare as numbers, which the text field is not
	w = doJSON(g, http.MethodGet, "/admin/api/cafeBookings?where="+url.QueryEscape("partySize==int:2"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["data"])

	w = doJSON(g, http.MethodGet, "/admin/api/cafeBookings?where="+url.QueryEscape("createdAt>=soon"), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicListTypedWhere(t *testing.T) {
	g, store, _ := newSiteEngine(t)
	ctx := context.Background()
	for _, item := range []docstore.Fields{
		{"name": "Hummus", "price": 18.5, "available": true},
		{"name": "Falafel", "price": 12.0, "available": false},
	} {
		_, err := store.Add(ctx, site.CafeMenu, item)
		require.NoError(t, err)
	}

	var items []map[string]interface{}
	w := doJSON(g, http.MethodGet, "/api/cafeMenu?where="+url.QueryEscape("available==bool:true"), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Hummus", items[0]["name"])

	w = doJSON(g, http.MethodGet, "/api/cafeMenu?where="+url.QueryEscape("price<float:15"), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Falafel", items[0]["name"])
}

func TestTimesMustBeTwentyFourHour(t *testing.T) {
	g, _, _ := newSiteEngine(t)
	for _, bad := range []string{"6:00 PM", "7pm", "9:00", "25:00"} {
		w := doJSON(g, http.MethodPost, "/api/cafeBookings", `{"name":"Dana","email":"dana@example.org","date":"2026-05-20","time":"`+bad+`","partySize":"4"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		w = doJSON(g, http.MethodPost, "/admin/api/events", `{"title":"Open Mic","date":"2026-06-01","time":"`+bad+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}

	// events may leave the time out
	w := doJSON(g, http.MethodPost, "/admin/api/events", `{"title":"Open Mic","date":"2026-06-01"}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doJSON(g, http.MethodPost, "/admin/api/events", `{"title":"Matinee","date":"2026-06-01","time":"09:30"}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
