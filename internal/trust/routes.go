package trust

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-scoring/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/trust").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/me", handler.GetMyTrust).Methods("GET")
	api.HandleFunc("/{userId:[0-9]+}", handler.GetUserTrust).Methods("GET")

	// Called by the stats aggregator, not by members
	api.Handle("/{userId:[0-9]+}/invalidate", authMiddleware.RequireService(http.HandlerFunc(handler.InvalidateTrust))).Methods("POST")
}
