package behavior

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/imadgeboyega/kiekky-scoring/internal/auth"
	"github.com/imadgeboyega/kiekky-scoring/internal/common/logger"
	"github.com/imadgeboyega/kiekky-scoring/internal/common/utils"
)

type Handler struct {
	service Service
	tracker *Tracker
	log     *logger.Logger
}

func NewHandler(service Service, tracker *Tracker, log *logger.Logger) *Handler {
	return &Handler{service: service, tracker: tracker, log: log}
}

func (h *Handler) TrackView(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req TrackViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.tracker.TrackView(r.Context(), userID, req.ViewedUserID, req.DwellMs, req.Action, req.Snapshot)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAction), errors.Is(err, ErrSelfView), errors.Is(err, ErrInvalidEvent):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("Failed to track view", "user_id", userID, "error", err)
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to record view")
		}
		return
	}

	utils.RespondWithData(w, http.StatusCreated, event)
}

func (h *Handler) GetTaste(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := h.service.GetTasteProfile(r.Context(), userID)
	if err != nil {
		h.log.Error("Failed to get taste profile", "user_id", userID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get taste profile")
		return
	}

	utils.RespondWithData(w, http.StatusOK, profile)
}

func (h *Handler) RefreshTaste(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := h.service.RefreshNow(r.Context(), userID)
	if err != nil {
		h.log.Error("Failed to refresh taste profile", "user_id", userID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to refresh taste profile")
		return
	}

	utils.RespondWithData(w, http.StatusOK, profile)
}
