// Package webhook provides the HTTP handler for billing provider callbacks.
//
// The payment provider notifies the backend when a user's pro subscription
// changes. Each notification is a JSON POST signed with HMAC-SHA256 over the
// raw request body (shared secret, hex digest in the X-Blitz-Signature-256
// header). The handler verifies the signature before trusting the payload,
// then flips the user's pro flag in the store.
//
// Payload:
//
//	{"uid": "<uuid>", "event": "pro.activated"|"pro.expired", "expiresAt": <unix>}
//
// Unverifiable notifications are rejected with 401 and logged; malformed ones
// with 400. The provider retries on 5xx, so store failures return 500.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/metrics"
)

// maxBodySize is the maximum allowed request body size (64 KB). Billing
// notifications carry a single event and stay far under this limit.
const maxBodySize = 64 << 10

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the request body,
// prefixed with "sha256=".
const SignatureHeader = "X-Blitz-Signature-256"

// Billing event names sent by the payment provider.
const (
	EventProActivated = "pro.activated"
	EventProExpired   = "pro.expired"
)

// Notification is the JSON payload of a billing callback.
type Notification struct {
	UID       string `json:"uid"`
	Event     string `json:"event"`
	ExpiresAt int64  `json:"expiresAt"`
}

// ProStore updates a user's pro entitlement.
type ProStore interface {
	SetPro(ctx context.Context, uid string, isPro bool, expiresAt int64) error
}

// Handler handles billing provider notifications.
type Handler struct {
	secret string
	users  ProStore
}

// NewHandler creates a billing webhook handler.
//
// secret is the shared HMAC key agreed with the payment provider, loaded from
// SSM at cold start. An empty secret disables the endpoint (503) rather than
// accepting unsigned entitlement changes.
func NewHandler(secret string, users ProStore) *Handler {
	return &Handler{
		secret: secret,
		users:  users,
	}
}

// ServeHTTP dispatches billing notifications. Only POST is accepted.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.handleEvent(w, r)
}

// handleEvent verifies and applies a single billing notification.
func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		log.Warn().Msg("Billing webhook received but no webhook secret is configured")
		http.Error(w, "webhook not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error().Err(err).Msg("Billing webhook: failed to read body")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(body) == 0 {
		log.Warn().Msg("Billing webhook: empty body")
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		log.Warn().Msg("Billing webhook: missing signature header")
		http.Error(w, "missing signature", http.StatusUnauthorized)
		return
	}

	if !h.verifySignature(body, signature) {
		log.Warn().Msg("Billing webhook: invalid signature")
		metrics.New("CozyClean").Count("WebhookSignatureRejected").Flush()
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Warn().Err(err).Msg("Billing webhook: malformed payload")
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	if uuid.Validate(n.UID) != nil {
		log.Warn().Str("uid", n.UID).Msg("Billing webhook: invalid uid")
		http.Error(w, "invalid uid", http.StatusBadRequest)
		return
	}

	switch n.Event {
	case EventProActivated:
		err = h.users.SetPro(r.Context(), n.UID, true, n.ExpiresAt)
	case EventProExpired:
		err = h.users.SetPro(r.Context(), n.UID, false, 0)
	default:
		log.Warn().Str("event", n.Event).Msg("Billing webhook: unknown event")
		http.Error(w, "unknown event", http.StatusBadRequest)
		return
	}
	if err != nil {
		// 5xx so the provider retries the notification.
		log.Error().Err(err).Str("uid", n.UID).Str("event", n.Event).
			Msg("Billing webhook: failed to update pro status")
		http.Error(w, "failed to apply event", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("uid", n.UID).
		Str("event", n.Event).
		Int64("expiresAt", n.ExpiresAt).
		Msg("Billing webhook processed")

	metrics.New("CozyClean").
		Dimension("Event", n.Event).
		Count("WebhookProcessed").
		Flush()

	w.WriteHeader(http.StatusOK)
}

// verifySignature validates the signature header value against the
// HMAC-SHA256 of the body using the shared secret.
//
// The header format is: "sha256=<hex-encoded hash>"
//
// Uses hmac.Equal for constant-time comparison to prevent timing attacks.
func (h *Handler) verifySignature(body []byte, header string) bool {
	receivedHex, ok := strings.CutPrefix(header, "sha256=")
	if !ok || receivedHex == "" {
		return false
	}

	receivedBytes, err := hex.DecodeString(receivedHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expectedBytes := mac.Sum(nil)

	return hmac.Equal(receivedBytes, expectedBytes)
}
