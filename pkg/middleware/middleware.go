// Package middleware provides the HTTP middleware used by mounted modules:
// request logging, panic recovery, and CORS.
package middleware

import "net/http"

// Func wraps an http.Handler.
type Func func(http.Handler) http.Handler

// System manages an ordered stack of HTTP middleware. The first Func added
// is the outermost.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
	Len() int
}

type stack struct {
	fns []Func
}

// New creates a System seeded with fns.
func New(fns ...Func) System {
	return &stack{fns: fns}
}

func (s *stack) Use(fn func(http.Handler) http.Handler) {
	if fn != nil {
		s.fns = append(s.fns, fn)
	}
}

func (s *stack) Len() int {
	return len(s.fns)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.fns) - 1; i >= 0; i-- {
		handler = s.fns[i](handler)
	}
	return handler
}
