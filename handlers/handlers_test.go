package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/logger"
	"sparkAPI/internal/selection"
	"sparkAPI/internal/store/memory"
	"sparkAPI/middleware"
	"sparkAPI/services"
)

type testEnv struct {
	catalog    *catalog.Catalog
	couples    *services.CoupleService
	challenges *services.ChallengeService
	stats      *services.StatsService
	content    *services.ContentService

	coupleHandler    *CoupleHandler
	challengeHandler *ChallengeHandler
	progressHandler  *ProgressHandler
	contentHandler   *ContentHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	st := memory.New()
	env := &testEnv{catalog: cat}
	env.challenges = services.NewChallengeService(st, cat, nil, nil, selection.NewSeededRand(7),
		services.ChallengeServiceConfig{Policy: selection.DefaultPolicy()}, nil, nil)
	env.couples = services.NewCoupleService(st, cat, env.challenges, nil)
	env.stats = services.NewStatsService(st, cat, time.UTC)
	env.content = services.NewContentService(st, cat)

	env.coupleHandler = NewCoupleHandler(env.couples, nil)
	env.challengeHandler = NewChallengeHandler(env.couples, env.challenges, env.stats, nil)
	env.progressHandler = NewProgressHandler(env.couples, env.challenges, env.stats, nil)
	env.contentHandler = NewContentHandler(env.couples, env.content, cat, nil)
	return env
}

// request builds a request as it looks after the auth middleware ran.
func request(method, target, clerkID string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if clerkID != "" {
		req = req.WithContext(middleware.WithClerkID(req.Context(), clerkID))
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

func (env *testEnv) onboard(t *testing.T, clerkID string) {
	t.Helper()
	rr := serve(env.coupleHandler.CreateProfile, request(http.MethodPost, "/api/v1/couple", clerkID, map[string]interface{}{
		"partner1_name":         "Ana",
		"partner2_name":         "Ben",
		"relationship_status":   "dating",
		"relationship_duration": "1-3 years",
	}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestCoupleProfileLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := serve(env.coupleHandler.GetProfile, request(http.MethodGet, "/api/v1/couple", "user_1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	env.onboard(t, "user_1")

	rr = serve(env.coupleHandler.CreateProfile, request(http.MethodPost, "/api/v1/couple", "user_1", map[string]string{
		"partner1_name": "Ana", "partner2_name": "Ben",
	}))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(env.coupleHandler.UpdateProfile, request(http.MethodPut, "/api/v1/couple", "user_1", map[string]interface{}{
		"challenge_frequency": "weekly",
	}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(env.coupleHandler.GetProfile, request(http.MethodGet, "/api/v1/couple", "user_1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var profile map[string]interface{}
	decode(t, rr, &profile)
	assert.Equal(t, "Ana", profile["partner1_name"])
	assert.Equal(t, "weekly", profile["challenge_frequency"])
	assert.NotContains(t, profile, "owner_id")

	rr = serve(env.coupleHandler.DeleteProfile, request(http.MethodDelete, "/api/v1/couple", "user_1", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = serve(env.coupleHandler.GetProfile, request(http.MethodGet, "/api/v1/couple", "user_1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCoupleProfileValidationAndAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := serve(env.coupleHandler.GetProfile, request(http.MethodGet, "/api/v1/couple", "", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(env.coupleHandler.CreateProfile, request(http.MethodPost, "/api/v1/couple", "user_1", map[string]string{
		"partner1_name": "Ana",
	}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/couple", strings.NewReader("{not json"))
	req = req.WithContext(middleware.WithClerkID(req.Context(), "user_1"))
	rr = serve(env.coupleHandler.CreateProfile, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChallengeFlow(t *testing.T) {
	env := newTestEnv(t)
	env.onboard(t, "user_1")

	rr := serve(env.challengeHandler.GetCurrentChallenge, request(http.MethodGet, "/api/v1/challenge/current", "user_1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(env.challengeHandler.NextChallenge, request(http.MethodPost, "/api/v1/challenge/next", "user_1",
		services.NextChallengeRequest{Category: "Physical Touch & Affection"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var view services.ChallengeView
	decode(t, rr, &view)
	assert.Equal(t, "Physical Touch & Affection", view.Category)

	rr = serve(env.challengeHandler.CompleteChallenge, request(http.MethodPost, "/api/v1/challenge/complete", "user_1",
		completeChallengeRequest{ChallengeID: view.ID}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var first services.ProgressView
	decode(t, rr, &first)
	assert.False(t, first.AlreadyCompleted)
	assert.Equal(t, 1, first.Progress.TotalCompleted)
	assert.Equal(t, []string{"First Spark"}, first.NewBadges)
	require.NotNil(t, first.NextChallenge)

	rr = serve(env.challengeHandler.CompleteChallenge, request(http.MethodPost, "/api/v1/challenge/complete", "user_1",
		completeChallengeRequest{ChallengeID: view.ID}))
	require.Equal(t, http.StatusOK, rr.Code)
	var second services.ProgressView
	decode(t, rr, &second)
	assert.True(t, second.AlreadyCompleted)
	assert.Equal(t, 1, second.Progress.TotalCompleted)
}

func TestNextChallengeWithoutBody(t *testing.T) {
	env := newTestEnv(t)
	env.onboard(t, "user_1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/challenge/next?category=Emotional+Connection", nil)
	req = req.WithContext(middleware.WithClerkID(req.Context(), "user_1"))
	rr := serve(env.challengeHandler.NextChallenge, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view services.ChallengeView
	decode(t, rr, &view)
	assert.Equal(t, "Emotional Connection", view.Category)
}

func TestChallengeErrors(t *testing.T) {
	env := newTestEnv(t)

	rr := serve(env.challengeHandler.NextChallenge, request(http.MethodPost, "/api/v1/challenge/next", "nobody", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	env.onboard(t, "user_1")

	rr = serve(env.challengeHandler.NextChallenge, request(http.MethodPost, "/api/v1/challenge/next", "user_1",
		services.NextChallengeRequest{Category: "Knitting"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(env.challengeHandler.NextChallenge, request(http.MethodPost, "/api/v1/challenge/next", "user_1",
		services.NextChallengeRequest{ChallengeID: "unknown_9"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(env.challengeHandler.CompleteChallenge, request(http.MethodPost, "/api/v1/challenge/complete", "user_1",
		completeChallengeRequest{}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProgressEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.onboard(t, "user_1")

	rr := serve(env.challengeHandler.CompleteChallenge, request(http.MethodPost, "/api/v1/challenge/complete", "user_1",
		completeChallengeRequest{ChallengeID: "comm_1"}))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(env.progressHandler.GetProgress, request(http.MethodGet, "/api/v1/progress", "user_1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var summary services.ProgressSummary
	decode(t, rr, &summary)
	assert.Equal(t, 1, summary.Progress.TotalCompleted)

	rr = serve(env.progressHandler.GetCategoryStats, request(http.MethodGet, "/api/v1/progress/categories", "user_1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	now := time.Now().UTC()
	target := "/api/v1/progress/calendar?year=" + strconv.Itoa(now.Year()) + "&month=" + strconv.Itoa(int(now.Month()))
	rr = serve(env.progressHandler.GetCalendar, request(http.MethodGet, target, "user_1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(env.progressHandler.GetCalendar, request(http.MethodGet, "/api/v1/progress/calendar?month=13", "user_1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = serve(env.progressHandler.GetCalendar, request(http.MethodGet, "/api/v1/progress/calendar?year=abc", "user_1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(env.progressHandler.ExportProgress, request(http.MethodGet, "/api/v1/progress/export", "user_1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "spark_data_")
	var export map[string]json.RawMessage
	decode(t, rr, &export)
	for _, key := range []string{"profile", "progress", "completed_challenges", "badges", "current_challenge", "viewed_articles", "viewed_products", "export_date"} {
		assert.Contains(t, export, key)
	}

	rr = serve(env.progressHandler.ResetProgress, request(http.MethodPost, "/api/v1/progress/reset", "user_1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(env.progressHandler.GetProgress, request(http.MethodGet, "/api/v1/progress", "user_1", nil))
	decode(t, rr, &summary)
	assert.Zero(t, summary.Progress.TotalCompleted)

	rr = serve(env.challengeHandler.GetCurrentChallenge, request(http.MethodGet, "/api/v1/challenge/current", "user_1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestContentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.onboard(t, "user_1")

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/articles", env.contentHandler.GetArticles).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/articles/{id}", env.contentHandler.GetArticle).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/products/{id}", env.contentHandler.GetProduct).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/catalog/challenges", env.contentHandler.GetChallengeCatalog).Methods(http.MethodGet)

	article := env.catalog.Articles()[0]
	product := env.catalog.Products()[0]

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, request(http.MethodGet, "/api/v1/articles/"+article.ID, "", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, request(http.MethodGet, "/api/v1/articles/"+article.ID, "user_without_profile", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, request(http.MethodGet, "/api/v1/products/"+product.ID, "user_1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var detail services.ProductDetail
	decode(t, rr, &detail)
	assert.Equal(t, product.ID, detail.Product.ID)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, request(http.MethodGet, "/api/v1/articles/does-not-exist", "", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, request(http.MethodGet, "/api/v1/catalog/challenges?category=Communication+Boosters", "", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var cat challengeCatalogResponse
	decode(t, rr, &cat)
	assert.Len(t, cat.Challenges, 5)
	assert.Len(t, cat.Categories, 5)
}

const testWebhookSecret = "whsec_dGVzdC13ZWJob29rLXNlY3JldA=="

func signWebhook(id, timestamp string, body []byte) string {
	key, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(testWebhookSecret, "whsec_"))
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func webhookRequest(body []byte, signature string, ts time.Time) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	timestamp := strconv.FormatInt(ts.Unix(), 10)
	req.Header.Set("svix-id", "msg_test")
	req.Header.Set("svix-timestamp", timestamp)
	if signature == "" {
		signature = signWebhook("msg_test", timestamp, body)
	}
	req.Header.Set("svix-signature", "v1,c3RhbGU= "+signature)
	return req
}

func TestWebhookUserDeleted(t *testing.T) {
	env := newTestEnv(t)
	env.onboard(t, "user_gone")
	handler := NewWebhookHandler(env.couples, testWebhookSecret, nil)

	payload := []byte(`{"data": {"id": "user_gone", "deleted": true}, "object": "event", "type": "user.deleted"}`)
	rr := serve(handler.HandleClerkWebhook, webhookRequest(payload, "", time.Now()))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var response map[string]bool
	decode(t, rr, &response)
	assert.True(t, response["success"])

	_, err := env.couples.ProfileIDForOwner(context.Background(), "user_gone")
	assert.ErrorIs(t, err, services.ErrProfileNotFound)

	// A repeated delivery is acknowledged.
	rr = serve(handler.HandleClerkWebhook, webhookRequest(payload, "", time.Now()))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWebhookRejectsBadSignatures(t *testing.T) {
	env := newTestEnv(t)
	env.onboard(t, "user_1")
	handler := NewWebhookHandler(env.couples, testWebhookSecret, nil)

	payload := []byte(`{"data": {"id": "user_1"}, "object": "event", "type": "user.deleted"}`)

	rr := serve(handler.HandleClerkWebhook, webhookRequest(payload, "v1,AAAA", time.Now()))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(handler.HandleClerkWebhook, webhookRequest(payload, "", time.Now().Add(-time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	rr = serve(handler.HandleClerkWebhook, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	_, err := env.couples.ProfileIDForOwner(context.Background(), "user_1")
	assert.NoError(t, err, "profile survives rejected deliveries")
}

func TestWebhookWithoutSecretRefusesDeliveries(t *testing.T) {
	env := newTestEnv(t)
	env.onboard(t, "user_x")
	core, logs := observer.New(zapcore.DebugLevel)
	handler := NewWebhookHandler(env.couples, "", &logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	payload := []byte(`{"data": {"id": "user_x"}, "object": "event", "type": "user.deleted"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(payload))
	rr := serve(handler.HandleClerkWebhook, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	// A payload signed for some other secret is refused the same way.
	rr = serve(handler.HandleClerkWebhook, webhookRequest(payload, "", time.Now()))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	_, err := env.couples.ProfileIDForOwner(context.Background(), "user_x")
	assert.NoError(t, err, "profile survives unverified deliveries")

	refused := logs.FilterMessageSnippet("CLERK_WEBHOOK_SECRET not set").All()
	require.Len(t, refused, 2)
	assert.Equal(t, zapcore.ErrorLevel, refused[0].Level)
	assert.Equal(t, "WebhookHandler", refused[0].ContextMap()["handler"])
}

func TestServiceErrorLogsAndHidesInternalFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	rr := httptest.NewRecorder()
	respondWithServiceError(rr, log, fmt.Errorf("query couples: %w", context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "query couples")

	entries := logs.FilterMessage("Internal error").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "query couples")

	rr = httptest.NewRecorder()
	respondWithServiceError(rr, log, services.ErrProfileNotFound)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 1, logs.Len(), "expected errors are not logged")
}
