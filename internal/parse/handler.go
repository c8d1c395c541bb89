package parse

import (
	"log/slog"
	"net/http"

	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/routes"
)

// Handler exposes the parser over HTTP.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{sys: sys, logger: logger.With("handler", "parse")}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/parse",
		Tags:   []string{"Pipeline"},
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Parse, OpenAPI: docs.Parse},
		},
	}
}

// Parse structures the receipt text in the JSON body.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	resp, err := h.sys.Parse(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
