package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sparkAPI/internal/logger"
	"sparkAPI/services"
)

// webhookTolerance bounds how far svix-timestamp may drift from now.
const webhookTolerance = 5 * time.Minute

type ClerkWebhookEvent struct {
	Data   json.RawMessage `json:"data"`
	Object string          `json:"object"`
	Type   string          `json:"type"`
}

type WebhookHandler struct {
	coupleService *services.CoupleService
	secret        string
	now           func() time.Time
	log           *logger.Logger
}

// NewWebhookHandler takes the Clerk signing secret, with or without its
// "whsec_" prefix. Without a secret every delivery is refused.
func NewWebhookHandler(coupleService *services.CoupleService, secret string, log *logger.Logger) *WebhookHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &WebhookHandler{
		coupleService: coupleService,
		secret:        secret,
		now:           time.Now,
		log:           log.With("handler", "WebhookHandler"),
	}
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.log.Error("Rejecting webhook, CLERK_WEBHOOK_SECRET not set")
		http.Error(w, "Webhook verification not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.log.Warn("Error reading webhook body", "error", err)
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	if !h.verifyWebhookSignature(r.Header, body) {
		h.log.Warn("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.Warn("Error parsing webhook", "error", err)
		http.Error(w, "Error parsing webhook", http.StatusBadRequest)
		return
	}

	h.log.Info("Received webhook event", "type", event.Type)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	switch event.Type {
	case "user.deleted":
		if err := h.handleUserDeleted(ctx, event.Data); err != nil {
			h.log.Error("Error handling user.deleted", "error", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.created", "user.updated":
		// Couple profiles are created during onboarding, not at sign-up.

	default:
		h.log.Debug("Unhandled webhook event type", "type", event.Type)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

func (h *WebhookHandler) handleUserDeleted(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	if userData.ID == "" {
		return fmt.Errorf("user.deleted event without id")
	}

	if err := h.coupleService.DeleteByOwner(ctx, userData.ID); err != nil {
		return fmt.Errorf("failed to delete couple profile: %w", err)
	}

	h.log.Info("Removed couple data for deleted user")
	return nil
}

// verifyWebhookSignature checks the svix scheme Clerk uses: an HMAC-SHA256 of
// "id.timestamp.body" keyed by the base64 secret, sent as one or more
// space-separated "v1,<base64>" entries. An empty secret never verifies.
func (h *WebhookHandler) verifyWebhookSignature(header http.Header, body []byte) bool {
	if h.secret == "" {
		return false
	}

	svixID := header.Get("svix-id")
	svixTimestamp := header.Get("svix-timestamp")
	svixSignature := header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		h.log.Warn("Missing webhook signature headers")
		return false
	}

	ts, err := strconv.ParseInt(svixTimestamp, 10, 64)
	if err != nil {
		return false
	}
	if drift := h.now().Sub(time.Unix(ts, 0)); drift > webhookTolerance || drift < -webhookTolerance {
		h.log.Warn("Webhook timestamp outside tolerance")
		return false
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h.secret, "whsec_"))
	if err != nil {
		h.log.Error("Webhook secret is not valid base64", "error", err)
		return false
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(svixID + "." + svixTimestamp + "."))
	mac.Write(body)
	expected := mac.Sum(nil)

	for _, sig := range strings.Fields(svixSignature) {
		version, encoded, ok := strings.Cut(sig, ",")
		if !ok || version != "v1" {
			continue
		}
		provided, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, provided) {
			return true
		}
	}
	return false
}
