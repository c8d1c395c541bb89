package main

import (
	"fmt"
	"time"

	"github.com/trackerzenith/docpipe/internal/config"
	"github.com/trackerzenith/docpipe/internal/infrastructure"
)

type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra, cfg)
	modules.Mount(router)

	infra.Logger.Info(
		"docpipe initialized",
		"addr", cfg.Server.Addr(),
		"env", cfg.Env(),
		"version", cfg.Version,
		"api", cfg.API.BasePath,
		"storage", cfg.Storage.Provider,
		"auth", infra.Auth != nil,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start runs the startup hooks of every subsystem and begins serving. The
// listener accepts traffic before the hooks finish; /readyz reports 503 until
// they have.
func (s *Server) Start() error {
	begin := time.Now()

	if err := s.infra.Start(); err != nil {
		return fmt.Errorf("start infrastructure: %w", err)
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return fmt.Errorf("start http: %w", err)
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("ready to process documents", "startup", time.Since(begin).Round(time.Millisecond))
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
