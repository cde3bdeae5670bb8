package handlers

import (
	"context"
	"net/http"
	"time"

	"sparkAPI/internal/couple"
	"sparkAPI/internal/logger"
	"sparkAPI/middleware"
	"sparkAPI/services"
)

type CoupleHandler struct {
	coupleService *services.CoupleService
	log           *logger.Logger
}

func NewCoupleHandler(coupleService *services.CoupleService, log *logger.Logger) *CoupleHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CoupleHandler{
		coupleService: coupleService,
		log:           log.With("handler", "CoupleHandler"),
	}
}

func (h *CoupleHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	profile, err := h.coupleService.GetProfile(ctx, profileID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// CreateProfile runs a selection cycle for the first challenge, which may
// call the external generator, so it gets a longer deadline.
func (h *CoupleHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req couple.CreateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.coupleService.CreateProfile(ctx, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *CoupleHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	var req couple.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.coupleService.UpdateProfile(ctx, profileID, &req)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *CoupleHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	if err := h.coupleService.DeleteProfile(ctx, profileID); err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
