package prompts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/pagination"
	"github.com/trackerzenith/docpipe/pkg/routes"
)

// Handler serves prompt override management under /prompts.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest is the POST /prompts/search body.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// StageContent is the body of the per-stage instructions and spec reads.
type StageContent struct {
	Stage   Stage  `json:"stage"`
	Content string `json:"content"`
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "prompts"),
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/prompts",
		Tags:   []string{"Prompts"},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: docs.List},
			{Method: "GET", Pattern: "/stages", Handler: h.Stages, OpenAPI: docs.Stages},
			{Method: "GET", Pattern: "/{id}", Handler: h.withID(h.sys.Find, http.StatusOK), OpenAPI: docs.Find},
			{Method: "GET", Pattern: "/{stage}/instructions", Handler: h.withStage(h.sys.Instructions), OpenAPI: docs.Instructions},
			{Method: "GET", Pattern: "/{stage}/spec", Handler: h.withStage(h.sys.Spec), OpenAPI: docs.Spec},
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: docs.Create},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update, OpenAPI: docs.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: docs.Delete},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: docs.Search},
			{Method: "POST", Pattern: "/{id}/activate", Handler: h.withID(h.sys.Activate, http.StatusOK), OpenAPI: docs.Activate},
			{Method: "POST", Pattern: "/{id}/deactivate", Handler: h.withID(h.sys.Deactivate, http.StatusOK), OpenAPI: docs.Deactivate},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	h.list(w, r, page, FiltersFromQuery(r.URL.Query()))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	req.PageRequest.Normalize(h.pagination)
	h.list(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Stages(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Stages())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.respond(w, http.StatusCreated)(h.sys.Create(r.Context(), cmd))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd UpdateCommand
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	h.respond(w, http.StatusOK)(h.sys.Update(r.Context(), id, cmd))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withID adapts a System call keyed by the {id} path value.
func (h *Handler) withID(fn func(context.Context, int64) (*Prompt, error), status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := handlers.PathID(r, "id")
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
		h.respond(w, status)(fn(r.Context(), id))
	}
}

// withStage adapts a System read keyed by the {stage} path value.
func (h *Handler) withStage(fn func(context.Context, Stage) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stage, err := ParseStage(r.PathValue("stage"))
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}

		text, err := fn(r.Context(), stage)
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, StageContent{Stage: stage, Content: text})
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int) func(*Prompt, error) {
	return func(p *Prompt, err error) {
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, status, p)
	}
}
