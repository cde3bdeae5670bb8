package handlers

import (
	"context"
	"net/http"
	"time"

	"sparkAPI/internal/logger"
	"sparkAPI/services"
)

// Selection may wait on the external generator, bounded by its own timeout
// and one retry.
const selectionTimeout = 45 * time.Second

type ChallengeHandler struct {
	coupleService    *services.CoupleService
	challengeService *services.ChallengeService
	statsService     *services.StatsService
	log              *logger.Logger
}

func NewChallengeHandler(coupleService *services.CoupleService, challengeService *services.ChallengeService, statsService *services.StatsService, log *logger.Logger) *ChallengeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ChallengeHandler{
		coupleService:    coupleService,
		challengeService: challengeService,
		statsService:     statsService,
		log:              log.With("handler", "ChallengeHandler"),
	}
}

func (h *ChallengeHandler) GetCurrentChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	view, err := h.statsService.CurrentChallenge(ctx, profileID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}
	if view == nil {
		respondWithError(w, http.StatusNotFound, "No challenge offered yet")
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

// NextChallenge accepts an optional body with a category or a challenge id.
func (h *ChallengeHandler) NextChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), selectionTimeout)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	var req services.NextChallengeRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	if c := r.URL.Query().Get("category"); c != "" && req.Category == "" {
		req.Category = c
	}

	view, err := h.challengeService.GetNextChallenge(ctx, profileID, req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

type completeChallengeRequest struct {
	ChallengeID string `json:"challenge_id"`
	Category    string `json:"category"`
}

func (h *ChallengeHandler) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), selectionTimeout)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	var req completeChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.challengeService.CompleteChallenge(ctx, profileID, req.ChallengeID, req.Category)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}
