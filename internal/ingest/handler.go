package ingest

import (
	"log/slog"
	"net/http"

	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/routes"
)

// Handler exposes the classifier over HTTP.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{sys: sys, logger: logger.With("handler", "ingest")}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/ingest",
		Tags:   []string{"Pipeline"},
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Ingest, OpenAPI: docs.Ingest},
		},
	}
}

// Ingest classifies the document named in the JSON body.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	resp, err := h.sys.Ingest(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
