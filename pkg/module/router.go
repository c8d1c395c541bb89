package module

import (
	"net/http"
	"slices"
	"strings"
)

// Router sends each request to the mounted module with the longest matching
// prefix. Paths no module claims go to a plain ServeMux, which is where
// the root-level endpoints such as /healthz live.
type Router struct {
	modules []*Module
	native  *http.ServeMux
}

func NewRouter() *Router {
	return &Router{native: http.NewServeMux()}
}

// HandleNative registers pattern on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount adds m, replacing any module already mounted at the same prefix.
func (r *Router) Mount(m *Module) {
	r.modules = slices.DeleteFunc(r.modules, func(existing *Module) bool {
		return existing.prefix == m.prefix
	})
	r.modules = append(r.modules, m)
	slices.SortStableFunc(r.modules, func(a, b *Module) int {
		return len(b.prefix) - len(a.prefix)
	})
}

// ServeHTTP drops a single trailing slash from the path before matching, so
// "/api/v1/documents/" and "/api/v1/documents" reach the same route.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p, ok := strings.CutSuffix(req.URL.Path, "/"); ok && p != "" {
		req.URL.Path = p
	}

	if i := slices.IndexFunc(r.modules, func(m *Module) bool { return m.Matches(req.URL.Path) }); i >= 0 {
		r.modules[i].Serve(w, req)
		return
	}
	r.native.ServeHTTP(w, req)
}
