package reset

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const webhookTimeout = 10 * time.Second

// WebhookNotifier delivers RequestSubmitted events to the administrator
// channel as signed HTTP POSTs. The payload is signed with HMAC-SHA256 so
// the receiver can verify origin.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookNotifier creates a notifier posting to the given URL. The
// secret may be empty, in which case requests are unsigned.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: webhookTimeout},
	}
}

// webhookPayload is the wire shape of a submission notification. The
// matched flag tells administrators whether processing will rotate a
// credential; the payload never includes user identifiers.
type webhookPayload struct {
	Type        string    `json:"type"`
	RequestID   string    `json:"request_id"`
	UserMatched bool      `json:"user_matched"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotifySubmitted posts the event, signing the body when a secret is
// configured.
func (n *WebhookNotifier) NotifySubmitted(ctx context.Context, event RequestSubmitted) error {
	payload, err := json.Marshal(webhookPayload{
		Type:        "reset_request.submitted",
		RequestID:   event.RequestID.String(),
		UserMatched: event.UserMatched,
		CreatedAt:   event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set("X-Gatehouse-Signature", generateSignature(payload, n.secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook delivery: receiver returned %d", resp.StatusCode)
	}
	return nil
}

// VerifySignature checks a received signature against the payload.
// Receivers use this to authenticate notifications.
func VerifySignature(payload []byte, signature, secret string) bool {
	expected := generateSignature(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func generateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
