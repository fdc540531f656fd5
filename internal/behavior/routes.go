package behavior

import (
	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-scoring/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/behavior").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/views", handler.TrackView).Methods("POST")
	api.HandleFunc("/taste", handler.GetTaste).Methods("GET")
	api.HandleFunc("/taste/refresh", handler.RefreshTaste).Methods("POST")
}
