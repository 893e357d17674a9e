package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the timeouts every listener here uses.
// Write timeout leaves room for the largest document upload.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
