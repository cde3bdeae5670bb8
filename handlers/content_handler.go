package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/logger"
	"sparkAPI/middleware"
	"sparkAPI/services"
)

// ContentHandler serves the static catalog. Routes work without a session;
// an authenticated caller with a couple profile also gets views recorded.
type ContentHandler struct {
	coupleService  *services.CoupleService
	contentService *services.ContentService
	catalog        *catalog.Catalog
	log            *logger.Logger
}

func NewContentHandler(coupleService *services.CoupleService, contentService *services.ContentService, cat *catalog.Catalog, log *logger.Logger) *ContentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ContentHandler{
		coupleService:  coupleService,
		contentService: contentService,
		catalog:        cat,
		log:            log.With("handler", "ContentHandler"),
	}
}

func (h *ContentHandler) GetArticles(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.contentService.Articles(r.URL.Query().Get("category")))
}

func (h *ContentHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, err := h.viewerProfileID(ctx)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	detail, err := h.contentService.GetArticle(ctx, profileID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

func (h *ContentHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.contentService.Products(r.URL.Query().Get("category")))
}

func (h *ContentHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profileID, err := h.viewerProfileID(ctx)
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	detail, err := h.contentService.GetProduct(ctx, profileID, mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, h.log, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

type challengeCatalogResponse struct {
	Categories []string            `json:"categories"`
	Challenges []catalog.Challenge `json:"challenges"`
}

func (h *ContentHandler) GetChallengeCatalog(w http.ResponseWriter, r *http.Request) {
	resp := challengeCatalogResponse{Categories: h.catalog.ChallengeCategories()}
	if c := r.URL.Query().Get("category"); c != "" {
		resp.Challenges = h.catalog.ChallengesByCategory(c)
	} else {
		resp.Challenges = h.catalog.Challenges()
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// viewerProfileID returns uuid.Nil for anonymous callers and for callers
// without a couple profile.
func (h *ContentHandler) viewerProfileID(ctx context.Context) (uuid.UUID, error) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		return uuid.Nil, nil
	}
	id, err := h.coupleService.ProfileIDForOwner(ctx, clerkID)
	if errors.Is(err, services.ErrProfileNotFound) {
		return uuid.Nil, nil
	}
	return id, err
}
