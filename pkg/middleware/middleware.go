// Package middleware holds the handlers wrapped around each module: request
// ids, access logs, CORS, request deadlines and bearer token checks.
package middleware

import "net/http"

// System is an ordered middleware stack. The first middleware added is the
// outermost wrapper.
type System interface {
	Use(mws ...func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
	Len() int
}

type stack struct {
	mws []func(http.Handler) http.Handler
}

// New returns an empty stack.
func New() System {
	return &stack{}
}

// Use appends mws, skipping nil entries so optional middleware can be passed
// unconditionally.
func (s *stack) Use(mws ...func(http.Handler) http.Handler) {
	for _, mw := range mws {
		if mw != nil {
			s.mws = append(s.mws, mw)
		}
	}
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.mws) - 1; i >= 0; i-- {
		handler = s.mws[i](handler)
	}
	return handler
}

func (s *stack) Len() int {
	return len(s.mws)
}
