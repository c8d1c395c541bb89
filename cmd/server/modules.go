package main

import (
	"net/http"

	"github.com/trackerzenith/docpipe/internal/api"
	"github.com/trackerzenith/docpipe/internal/config"
	"github.com/trackerzenith/docpipe/internal/infrastructure"
	"github.com/trackerzenith/docpipe/pkg/database"
	"github.com/trackerzenith/docpipe/pkg/handlers"
	"github.com/trackerzenith/docpipe/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type banner struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

type health struct {
	Status   string             `json:"status"`
	Version  string             `json:"version"`
	Features map[string]bool    `json:"features"`
	Database database.PoolStats `json:"database"`
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, banner{
			Service: "docpipe",
			Version: cfg.Version,
			Docs:    cfg.API.BasePath + "/openapi.json",
		})
	})

	router.HandleNative("GET /health", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, health{
			Status:   "ok",
			Version:  cfg.Version,
			Features: features(infra, cfg),
			Database: infra.Database.Stats(),
		})
	})

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}

		failed := map[string]string{}
		for name, err := range infra.Lifecycle.Check(r.Context()) {
			if err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": failed})
			return
		}

		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	return router
}

// features reports the optional capabilities this instance was started with.
func features(infra *infrastructure.Infrastructure, cfg *config.Config) map[string]bool {
	f := infra.Models.Features()
	f["auth"] = infra.Auth != nil
	f["events"] = cfg.Events.Enabled()
	f["rasterize_pdfs"] = cfg.Pipeline.RasterizeEnabled()
	f["strict_duplicates"] = cfg.Pipeline.StrictDuplicates
	f["owner_prefix"] = cfg.Pipeline.OwnerPrefixEnforced()
	return f
}
