package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sparkAPI/internal/logger"
	"sparkAPI/services"
)

type ProgressHandler struct {
	coupleService    *services.CoupleService
	challengeService *services.ChallengeService
	statsService     *services.StatsService
	log              *logger.Logger
}

func NewProgressHandler(coupleService *services.CoupleService, challengeService *services.ChallengeService, statsService *services.StatsService, log *logger.Logger) *ProgressHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressHandler{
		coupleService:    coupleService,
		challengeService: challengeService,
		statsService:     statsService,
		log:              log.With("handler", "ProgressHandler"),
	}
}

func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	summary, err := h.statsService.Summary(ctx, profileID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *ProgressHandler) ResetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	if err := h.challengeService.ResetProgress(ctx, profileID); err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ExportProgress serves every record held for the couple as a downloadable
// JSON file.
func (h *ProgressHandler) ExportProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	export, err := h.challengeService.ExportProgress(ctx, profileID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	body, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="spark_data_%s.json"`, profileID))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// GetCalendar takes optional year and month query parameters.
func (h *ProgressHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	year, err := optionalInt(r, "year")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid year")
		return
	}
	month, err := optionalInt(r, "month")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid month")
		return
	}

	cal, err := h.statsService.Calendar(ctx, profileID, year, time.Month(month))
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, cal)
}

func (h *ProgressHandler) GetCategoryStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, ok := currentProfileID(ctx, w, h.coupleService, h.log)
	if !ok {
		return
	}

	stats, err := h.statsService.CategoryStats(ctx, profileID)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

func optionalInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
