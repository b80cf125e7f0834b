// Package httpserver holds the http.Server construction so timeouts are set
// in one place.
package httpserver

import (
	"net/http"
	"time"
)

// New creates an http.Server with sane timeouts.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
