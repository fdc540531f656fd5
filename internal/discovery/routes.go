package discovery

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-scoring/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/discovery").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/feed", handler.GetFeed).Methods("GET")
	api.HandleFunc("/compatibility/{userId:[0-9]+}", handler.GetCompatibility).Methods("GET")

	// Called by the profile editor, not by members
	api.Handle("/profiles/{userId:[0-9]+}/invalidate", authMiddleware.RequireService(http.HandlerFunc(handler.InvalidateProfile))).Methods("POST")
}
