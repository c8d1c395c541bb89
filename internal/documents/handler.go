package documents

import (
	"log/slog"
	"net/http"

	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/pagination"
	"github.com/trackerzenith/docpipe/pkg/routes"
)

// Handler serves the read-only document views. Writes happen only through
// the pipeline stages.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest is the POST /documents/search body. Unlike the query string
// form, malformed filters are rejected rather than dropped.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "documents"),
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Tags:   []string{"Documents"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: docs.List},
			{Method: "GET", Pattern: "/statuses", Handler: h.Statuses, OpenAPI: docs.Statuses},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: docs.Find},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: docs.Search},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.page(w, r, pagination.PageRequestFromQuery(q, h.pagination), FiltersFromQuery(q))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if err := req.Filters.Validate(); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	req.PageRequest.Normalize(h.pagination)
	h.page(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	result, err := h.sys.List(r.Context(), page, Scope(r.Context(), filters))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Statuses lists the lifecycle statuses in pipeline order.
func (h *Handler) Statuses(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Statuses())
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err == nil {
		err = Authorize(r.Context(), doc)
	}
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, doc)
}
