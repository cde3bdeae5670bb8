package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"sparkAPI/internal/logger"
	"sparkAPI/middleware"
	"sparkAPI/services"
)

const maxBodyBytes = 1 << 20

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service errors to status codes. Unexpected
// errors are logged and hidden from the client.
func respondWithServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		respondWithError(w, http.StatusNotFound, "Couple profile not found")
	case errors.Is(err, services.ErrChallengeNotFound):
		respondWithError(w, http.StatusNotFound, "Challenge not found")
	case errors.Is(err, services.ErrContentNotFound):
		respondWithError(w, http.StatusNotFound, "Content not found")
	case errors.Is(err, services.ErrProfileExists):
		respondWithError(w, http.StatusConflict, "Couple profile already exists")
	case errors.Is(err, services.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondWithError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		log.Error("Internal error", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// decodeOptionalJSON accepts an empty body and leaves dst untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

type profileResolver interface {
	ProfileIDForOwner(ctx context.Context, ownerID string) (uuid.UUID, error)
}

// currentProfileID resolves the caller's couple profile and writes the error
// response when it cannot.
func currentProfileID(ctx context.Context, w http.ResponseWriter, couples profileResolver, log *logger.Logger) (uuid.UUID, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return uuid.Nil, false
	}

	id, err := couples.ProfileIDForOwner(ctx, clerkID)
	if err != nil {
		respondWithServiceError(w, log, err)
		return uuid.Nil, false
	}
	return id, true
}
