// Package server assembles the HTTP router from the per-module handlers.
package server

import (
	"github.com/gorilla/mux"

	healthhandler "auth-service/internal/health/handler"
	identityhandler "auth-service/internal/identity/handler"
)

// NewRouter returns the router with all routes registered.
func NewRouter(auth *identityhandler.Server, health *healthhandler.Server) *mux.Router {
	r := mux.NewRouter()
	auth.Register(r)
	health.Register(r)
	return r
}
