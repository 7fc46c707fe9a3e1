package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for the verification daemon.
// The surface is operational only (health, metrics), so timeouts stay tight.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}
