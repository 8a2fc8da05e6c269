package api

import (
	"net/http"
	"time"
)

// NewServer wraps the router in an http.Server with the timeouts cmd/api
// expects. Write timeout stays generous for the transfer endpoint which can
// touch two inventory rows under contention.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
