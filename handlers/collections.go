package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gazra/gazra/backend/go-services/internal/collection"
	"github.com/gazra/gazra/backend/go-services/internal/docstore"
	"github.com/gazra/gazra/backend/go-services/internal/site"
	"github.com/gazra/gazra/backend/go-services/pkg/logger"
)

// CollectionsHandler serves the site collections over HTTP. Every request
// goes through a collection accessor; handlers never touch the store.
type CollectionsHandler struct {
	cols map[string]*collection.Collection
	now  func() time.Time
}

// NewCollectionsHandler binds one accessor per registered site collection.
func NewCollectionsHandler(store docstore.Store) *CollectionsHandler {
	h := &CollectionsHandler{cols: map[string]*collection.Collection{}, now: time.Now}
	for _, name := range site.Names() {
		h.cols[name] = collection.MustNew(store, name)
	}
	return h
}

// RegisterPublic registers the visitor-facing routes. submitLimit guards
// form submissions and may be nil.
func (h *CollectionsHandler) RegisterPublic(r gin.IRouter, submitLimit gin.HandlerFunc) {
	api := r.Group("/api")
	api.GET("/:collection", h.PublicList)
	api.GET("/:collection/:id", h.PublicGet)
	if submitLimit != nil {
		api.POST("/:collection", submitLimit, h.Submit)
	} else {
		api.POST("/:collection", h.Submit)
	}
}

// RegisterAdmin registers CRUD for every collection. The group is expected
// to carry the auth middleware.
func (h *CollectionsHandler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/:collection", h.AdminList)
	rg.POST("/:collection", h.AdminCreate)
	rg.GET("/:collection/:id", h.AdminGet)
	rg.PATCH("/:collection/:id", h.AdminUpdate)
	rg.DELETE("/:collection/:id", h.AdminDelete)
}

func (h *CollectionsHandler) kind(c *gin.Context) (site.Kind, *collection.Collection, bool) {
	k, ok := site.Lookup(c.Param("collection"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
		return site.Kind{}, nil, false
	}
	return k, h.cols[k.Name], true
}

// filtersFromQuery turns ?where=..&orderBy=..&dir=..&limit=.. into store filters.
// where may be repeated.
func filtersFromQuery(c *gin.Context) ([]docstore.Filter, error) {
	var out []docstore.Filter
	for _, expr := range c.QueryArray("where") {
		f, err := collection.ParseWhere(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if field := c.Query("orderBy"); field != "" {
		dir := docstore.Asc
		if strings.EqualFold(c.Query("dir"), "desc") {
			dir = docstore.Desc
		}
		out = append(out, docstore.OrderBy(field, dir))
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, errors.New("limit must be a non-negative integer")
		}
		out = append(out, docstore.Limit(n))
	}
	for _, f := range out {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func hasOrder(filters []docstore.Filter) bool {
	for _, f := range filters {
		if f.Kind == docstore.KindOrderBy {
			return true
		}
	}
	return false
}

// resultStatus maps a failed accessor result to an HTTP status.
func resultStatus[T any](res collection.Result[T]) int {
	if res.NotFound() {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// PublicList lists a publicly readable collection.
func (h *CollectionsHandler) PublicList(c *gin.Context) {
	k, col, ok := h.kind(c)
	if !ok {
		return
	}
	if !k.PublicRead {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
		return
	}
	filters, err := filtersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res := col.List(c.Request.Context(), filters...)
	if !res.Success {
		c.JSON(resultStatus(res), gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, res.Data)
}

// PublicGet returns one record of a publicly readable collection.
// /api/events/upcoming lists the events dated today or later.
func (h *CollectionsHandler) PublicGet(c *gin.Context) {
	k, col, ok := h.kind(c)
	if !ok {
		return
	}
	if !k.PublicRead {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
		return
	}
	if k.Name == site.Events && c.Param("id") == "upcoming" {
		h.upcoming(c, col)
		return
	}
	res := col.GetOne(c.Request.Context(), c.Param("id"))
	if !res.Success {
		c.JSON(resultStatus(res), gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, res.Data)
}

func (h *CollectionsHandler) upcoming(c *gin.Context, events *collection.Collection) {
	filters := site.UpcomingEvents(h.now())
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			filters = append(filters, docstore.Limit(n))
		}
	}
	res := events.List(c.Request.Context(), filters...)
	if !res.Success {
		c.JSON(resultStatus(res), gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, res.Data)
}

// Submit accepts a public form submission (booking, volunteer sign-up,
// enrollment or contact message).
func (h *CollectionsHandler) Submit(c *gin.Context) {
	k, col, ok := h.kind(c)
	if !ok {
		return
	}
	if !k.PublicSubmit {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "submissions are not accepted for this collection"})
		return
	}
	view := k.NewView()
	if err := c.ShouldBindJSON(view); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	site.PrepareSubmission(view)

	if e, isEnrollment := view.(*site.Enrollment); isEnrollment {
		if err := h.checkEnrollment(c.Request.Context(), e); err != nil {
			switch {
			case errors.Is(err, site.ErrUnknownCourse):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, site.ErrCourseFull):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			}
			return
		}
	}

	rec, err := collection.Encode(view)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	res := col.Create(c.Request.Context(), rec)
	if !res.Success {
		c.JSON(http.StatusBadGateway, gin.H{"error": res.Error})
		return
	}
	logger.Infof("new %s submission %s", k.Name, res.ID)
	c.JSON(http.StatusCreated, gin.H{"id": res.ID})
}

func (h *CollectionsHandler) checkEnrollment(ctx context.Context, e *site.Enrollment) error {
	return site.CheckEnrollment(ctx, h.cols[site.Courses], h.cols[site.Enrollments], e)
}

// AdminList returns the accessor Result for a list call. Without an explicit
// orderBy the newest records come first.
func (h *CollectionsHandler) AdminList(c *gin.Context) {
	_, col, ok := h.kind(c)
	if !ok {
		return
	}
	filters, err := filtersFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, collection.Result[[]collection.Record]{Error: err.Error()})
		return
	}
	res := col.List(c.Request.Context(), filters...)
	if !res.Success {
		c.JSON(resultStatus(res), res)
		return
	}
	if !hasOrder(filters) {
		site.NewestFirst(res.Data)
	}
	c.JSON(http.StatusOK, res)
}

func (h *CollectionsHandler) AdminGet(c *gin.Context) {
	_, col, ok := h.kind(c)
	if !ok {
		return
	}
	res := col.GetOne(c.Request.Context(), c.Param("id"))
	if !res.Success {
		c.JSON(resultStatus(res), res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AdminCreate validates the body through the collection's typed view before
// creating the record.
func (h *CollectionsHandler) AdminCreate(c *gin.Context) {
	k, col, ok := h.kind(c)
	if !ok {
		return
	}
	view := k.NewView()
	if err := c.ShouldBindJSON(view); err != nil {
		c.JSON(http.StatusBadRequest, collection.Result[collection.Record]{Error: err.Error()})
		return
	}
	rec, err := collection.Encode(view)
	if err != nil {
		c.JSON(http.StatusInternalServerError, collection.Result[collection.Record]{Error: err.Error()})
		return
	}
	res := col.Create(c.Request.Context(), rec)
	if !res.Success {
		c.JSON(resultStatus(res), res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// AdminUpdate merges the JSON object in the body into the record. Partial
// bodies are expected, e.g. {"status":"confirmed"}.
func (h *CollectionsHandler) AdminUpdate(c *gin.Context) {
	_, col, ok := h.kind(c)
	if !ok {
		return
	}
	var patch collection.Record
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, collection.Result[collection.Record]{Error: err.Error()})
		return
	}
	if len(patch) == 0 {
		c.JSON(http.StatusBadRequest, collection.Result[collection.Record]{Error: "empty update"})
		return
	}
	res := col.Update(c.Request.Context(), c.Param("id"), patch)
	if !res.Success {
		c.JSON(resultStatus(res), res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CollectionsHandler) AdminDelete(c *gin.Context) {
	_, col, ok := h.kind(c)
	if !ok {
		return
	}
	res := col.Delete(c.Request.Context(), c.Param("id"))
	if !res.Success {
		c.JSON(resultStatus(res), res)
		return
	}
	c.JSON(http.StatusOK, res)
}
