package discovery

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/imadgeboyega/kiekky-scoring/internal/auth"
	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
	"github.com/imadgeboyega/kiekky-scoring/internal/common/utils"
)

type Handler struct {
	service Service
	log     *logger.Logger
}

func NewHandler(service Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	opts := FeedOptions{Personalize: true}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		opts.Limit = limit
	}
	if v := q.Get("personalize"); v != "" {
		p, err := strconv.ParseBool(v)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid personalize flag")
			return
		}
		opts.Personalize = p
	}

	feed, err := h.service.GetFeed(r.Context(), userID, opts)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Complete your profile to start discovering")
			return
		}
		h.log.Error("Failed to build feed", "user_id", userID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to build feed")
		return
	}

	utils.RespondWithData(w, http.StatusOK, feed)
}

func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	otherID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || otherID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	breakdown, err := h.service.GetCompatibility(r.Context(), userID, otherID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Profile not found")
			return
		}
		h.log.Error("Failed to score compatibility", "user_id", userID, "other_id", otherID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to calculate compatibility")
		return
	}

	utils.RespondWithData(w, http.StatusOK, breakdown)
}

func (h *Handler) InvalidateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || userID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.service.InvalidateProfile(r.Context(), userID); err != nil {
		h.log.Error("Failed to invalidate profile scores", "user_id", userID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to invalidate profile scores")
		return
	}

	utils.MessageResponse(w, http.StatusOK, "Profile scores invalidated")
}
