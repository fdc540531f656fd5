package trust

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

func (h *Handler) GetMyTrust(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	score, ok := h.loadScore(w, r, userID)
	if !ok {
		return
	}
	utils.RespondWithData(w, http.StatusOK, score)
}

// GetUserTrust shows the full breakdown to the user themselves and to
// internal services; other members only get the public view.
func (h *Handler) GetUserTrust(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || userID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	score, ok := h.loadScore(w, r, userID)
	if !ok {
		return
	}

	callerID, _ := auth.GetUserIDFromContext(r.Context())
	if callerID == userID || auth.IsService(r.Context()) {
		utils.RespondWithData(w, http.StatusOK, score)
		return
	}
	utils.RespondWithData(w, http.StatusOK, score.Public())
}

func (h *Handler) InvalidateTrust(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil || userID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.service.InvalidateTrust(r.Context(), userID); err != nil {
		h.log.Error("Failed to invalidate trust score", "user_id", userID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to invalidate trust score")
		return
	}

	utils.MessageResponse(w, http.StatusOK, "Trust score invalidated")
}

func (h *Handler) loadScore(w http.ResponseWriter, r *http.Request, userID int64) (*TrustScore, bool) {
	score, err := h.service.GetTrustScore(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrStatsNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "No activity recorded for this user")
			return nil, false
		}
		h.log.Error("Failed to get trust score", "user_id", userID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get trust score")
		return nil, false
	}
	return score, true
}
