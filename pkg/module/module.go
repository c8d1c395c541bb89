// Package module mounts path-prefixed HTTP modules, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/trackerzenith/docpipe/pkg/middleware"
)

// Module serves one prefix. Requests reach the inner router with the prefix
// removed, after passing through the module's middleware.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System

	once    sync.Once
	handler http.Handler
}

// New panics unless prefix looks like "/api" or "/api/v1": a leading slash,
// no trailing slash and no empty segments.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Handler returns the router wrapped in the middleware stack. The stack is
// composed once, on first use; middleware added afterwards is rejected.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.router)
	})
	return m.handler
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Matches reports whether path is the prefix or lies beneath it.
func (m *Module) Matches(path string) bool {
	rest, ok := strings.CutPrefix(path, m.prefix)
	return ok && (rest == "" || rest[0] == '/')
}

// Serve dispatches req to the wrapped router with the prefix stripped. The
// bare prefix is served as "/".
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, m.prefix)
	if path == "" {
		path = "/"
	}

	r2 := new(http.Request)
	*r2 = *req
	r2.URL = new(url.URL)
	*r2.URL = *req.URL
	r2.URL.Path = path
	r2.URL.RawPath = ""

	m.Handler().ServeHTTP(w, r2)
}

// Use appends middleware; the first added is outermost. It panics once the
// module has served a request.
func (m *Module) Use(mws ...func(http.Handler) http.Handler) {
	if m.handler != nil {
		panic(fmt.Sprintf("module %s: Use after first request", m.prefix))
	}
	m.middleware.Use(mws...)
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case prefix == "/" || strings.HasSuffix(prefix, "/"):
		return fmt.Errorf("module prefix must not end with /: %s", prefix)
	case strings.Contains(prefix, "//"):
		return fmt.Errorf("module prefix contains an empty segment: %s", prefix)
	}
	return nil
}
