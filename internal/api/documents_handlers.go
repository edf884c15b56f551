package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docport-io/docport/internal/access"
	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/guard"
	"github.com/docport-io/docport/internal/models"
	"github.com/docport-io/docport/internal/query"
	"github.com/docport-io/docport/internal/registry"
	"github.com/docport-io/docport/internal/store"
)

// DocumentHandlers binds the access core to the per-category document
// routes. Every handler runs after the auth middleware, so an Identity
// is always present in the context.
type DocumentHandlers struct {
	router   *access.Router
	executor *query.Executor
	docs     store.DocumentStore
	debug    bool
}

func NewDocumentHandlers(router *access.Router, executor *query.Executor, docs store.DocumentStore, debug bool) *DocumentHandlers {
	return &DocumentHandlers{
		router:   router,
		executor: executor,
		docs:     docs,
		debug:    debug,
	}
}

func (h *DocumentHandlers) identity(c *gin.Context) (models.Identity, bool) {
	return identityOrFail(c, h.debug)
}

// parseDate accepts RFC 3339 or a bare date.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.E(apperrors.KindBadRequest, "malformed_date_filter")
}

func (h *DocumentHandlers) listFilters(c *gin.Context) (access.ListFilters, error) {
	from, err := parseDate(c.Query("date_from"))
	if err != nil {
		return access.ListFilters{}, err
	}
	to, err := parseDate(c.Query("date_to"))
	if err != nil {
		return access.ListFilters{}, err
	}
	return access.ListFilters{
		Status:   c.Query("status"),
		ClientID: c.Query("client_id"),
		DateFrom: from,
		DateTo:   to,
	}, nil
}

// HandleList serves GET /documents/:type.
func (h *DocumentHandlers) HandleList(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	filters, err := h.listFilters(c)
	if err != nil {
		respondError(c, err, h.debug)
		return
	}

	decision, err := h.router.RouteList(identity, c.Param("type"), filters)
	if err != nil {
		respondError(c, err, h.debug)
		return
	}

	docs, err := h.executor.Run(c.Request.Context(), decision.Spec)
	if err != nil {
		respondError(c, err, h.debug)
		return
	}
	docs = access.ApplyDateRange(docs, decision.DateFrom, decision.DateTo)

	c.JSON(http.StatusOK, models.DocumentListResponse{
		Documents: docs,
		Total:     len(docs),
	})
}

// HandleCount serves GET /documents/:type/count with the same filter
// semantics as the list, without returning rows. A date-filtered count
// has to materialize matches because date bounds are applied in-process.
func (h *DocumentHandlers) HandleCount(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	filters, err := h.listFilters(c)
	if err != nil {
		respondError(c, err, h.debug)
		return
	}

	decision, err := h.router.RouteList(identity, c.Param("type"), filters)
	if err != nil {
		respondError(c, err, h.debug)
		return
	}

	var count int
	if decision.DateFrom == nil && decision.DateTo == nil {
		count, err = h.executor.RunCount(c.Request.Context(), decision.Spec)
		if err != nil {
			respondError(c, err, h.debug)
			return
		}
	} else {
		docs, err := h.executor.Run(c.Request.Context(), decision.Spec.Unlimited())
		if err != nil {
			respondError(c, err, h.debug)
			return
		}
		count = len(access.ApplyDateRange(docs, decision.DateFrom, decision.DateTo))
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// HandleGet serves GET /documents/:type/:id.
func (h *DocumentHandlers) HandleGet(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	desc, err := registry.Resolve(c.Param("type"))
	if err != nil {
		respondError(c, err, h.debug)
		return
	}

	doc, err := h.docs.Get(c.Request.Context(), desc.Collection, c.Param("id"))
	if err != nil {
		respondError(c, storeErr(err), h.debug)
		return
	}

	if err := h.router.AuthorizeRead(identity, desc, doc); err != nil {
		respondError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// HandleCreate serves POST /documents/:type.
func (h *DocumentHandlers) HandleCreate(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindBadRequest, "malformed_body", err), h.debug)
		return
	}

	desc, err := h.router.AuthorizeCreate(c.Request.Context(), identity, c.Param("type"), payload)
	if err != nil {
		respondError(c, err, h.debug)
		return
	}

	result, err := guard.SanitizeCreate(identity, desc, payload, time.Now().UTC())
	if err != nil {
		respondError(c, err, h.debug)
		return
	}
	h.auditDropped(c, identity, desc.Name, result.Dropped)

	doc := &models.Document{ID: uuid.New().String()}
	doc.ApplyFields(result.Fields)

	if err := h.docs.Insert(c.Request.Context(), desc.Collection, doc); err != nil {
		respondError(c, storeErr(err), h.debug)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// HandleUpdate serves PUT /documents/:type/:id.
func (h *DocumentHandlers) HandleUpdate(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, apperrors.Wrap(apperrors.KindBadRequest, "malformed_body", err), h.debug)
		return
	}

	desc, err := h.router.AuthorizeUpdate(identity, c.Param("type"))
	if err != nil {
		respondError(c, err, h.debug)
		return
	}

	doc, err := h.docs.Get(c.Request.Context(), desc.Collection, c.Param("id"))
	if err != nil {
		respondError(c, storeErr(err), h.debug)
		return
	}
	if err := h.router.AuthorizeRead(identity, desc, doc); err != nil {
		respondError(c, err, h.debug)
		return
	}

	result, err := guard.SanitizeUpdate(identity, desc, payload, time.Now().UTC())
	if err != nil {
		respondError(c, err, h.debug)
		return
	}
	h.auditDropped(c, identity, desc.Name, result.Dropped)

	doc.ApplyFields(result.Fields)
	if err := h.docs.Update(c.Request.Context(), desc.Collection, doc); err != nil {
		respondError(c, storeErr(err), h.debug)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// HandleDelete serves DELETE /documents/:type/:id.
func (h *DocumentHandlers) HandleDelete(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	desc, err := h.router.AuthorizeDelete(identity, c.Param("type"))
	if err != nil {
		respondError(c, err, h.debug)
		return
	}

	doc, err := h.docs.Get(c.Request.Context(), desc.Collection, c.Param("id"))
	if err != nil {
		respondError(c, storeErr(err), h.debug)
		return
	}
	if err := h.router.AuthorizeRead(identity, desc, doc); err != nil {
		respondError(c, err, h.debug)
		return
	}

	if err := h.docs.Delete(c.Request.Context(), desc.Collection, doc.ID); err != nil {
		respondError(c, storeErr(err), h.debug)
		return
	}

	c.Status(http.StatusNoContent)
}

// auditDropped records the allow-list intersection outcome. Dropping is
// not an error, but it must be observable.
func (h *DocumentHandlers) auditDropped(c *gin.Context, identity models.Identity, category string, dropped []string) {
	if len(dropped) == 0 {
		return
	}
	requestID := c.GetString("request_id")
	log.Printf("audit: request %s: %s %s dropped fields on %s: %s",
		requestID, identity.Role, identity.ID, category, strings.Join(dropped, ","))
}
