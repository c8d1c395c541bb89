// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/trackerzenith/docpipe/internal/config"
	"github.com/trackerzenith/docpipe/internal/infrastructure"
	"github.com/trackerzenith/docpipe/pkg/middleware"
	"github.com/trackerzenith/docpipe/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	return Build(cfg, NewRuntime(cfg, infra))
}

// Build creates the API module from an assembled runtime.
// Requests pass through request id, logging, CORS, the request timeout and
// bearer token verification, in that order.
func Build(cfg *config.Config, runtime *Runtime) (*module.Module, error) {
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.RequestID(),
		middleware.Logger(runtime.Logger),
		middleware.CORS(&cfg.API.CORS),
		middleware.Timeout(cfg.API.RequestTimeoutDuration()),
		middleware.Auth(runtime.Auth, runtime.Logger),
	)

	return m, nil
}
