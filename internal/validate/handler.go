package validate

import (
	"log/slog"
	"net/http"

	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/routes"
)

// Handler exposes the validator over HTTP.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{sys: sys, logger: logger.With("handler", "validate")}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/validate",
		Tags:   []string{"Pipeline"},
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Validate, OpenAPI: docs.Validate},
		},
	}
}

// Validate returns the verdict for the draft in the JSON body.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	verdict, err := h.sys.Validate(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, verdict)
}
