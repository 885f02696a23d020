package reset

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orgkit/gatehouse/pkg/observability"
)

// IdentityProvider rotates credentials in the external identity platform
type IdentityProvider interface {
	UpdateCredential(ctx context.Context, userID uuid.UUID, newCredential string) error
}

// credentialBytes is the entropy of a generated replacement credential.
const credentialBytes = 32

// Workflow drives credential-reset requests through their lifecycle:
// pending is initial, processed and rejected are terminal, transitions
// are one-way and happen exactly once.
type Workflow struct {
	store    Store
	identity IdentityProvider
	notifier Notifier
	log      *observability.Logger

	now           func() time.Time
	newID         func() uuid.UUID
	newCredential func() (string, error)
}

// NewWorkflow creates the reset workflow over its collaborators
func NewWorkflow(store Store, identity IdentityProvider, notifier Notifier, log *observability.Logger) *Workflow {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Workflow{
		store:         store,
		identity:      identity,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
		newID:         uuid.New,
		newCredential: generateCredential,
	}
}

// Submit records a credential-reset request for the given email. A
// request is created whether or not the email matches an active user, and
// only the new request's id is returned, so responses never reveal which
// emails are registered. Rate governance is the transport layer's job.
func (w *Workflow) Submit(ctx context.Context, email string) (uuid.UUID, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return uuid.Nil, err
	}

	user, err := w.store.FindActiveUserByEmail(ctx, normalized)
	if err != nil {
		if err == ErrStoreNotInitialized {
			return uuid.Nil, err
		}
		return uuid.Nil, &UpstreamError{Op: "user lookup", Err: err}
	}

	request := &ResetRequest{
		ID:        w.newID(),
		UserEmail: normalized,
		Status:    StatusPending,
		CreatedAt: w.now(),
	}
	if user != nil {
		request.UserID = &user.ID
		if user.Name != "" {
			name := user.Name
			request.UserName = &name
		}
	}

	if err := w.store.CreateRequest(ctx, request); err != nil {
		if err == ErrStoreNotInitialized {
			return uuid.Nil, err
		}
		return uuid.Nil, &UpstreamError{Op: "request insert", Err: err}
	}

	event := RequestSubmitted{
		RequestID:   request.ID,
		Email:       normalized,
		UserMatched: user != nil,
		CreatedAt:   request.CreatedAt,
	}
	if err := w.notifier.NotifySubmitted(ctx, event); err != nil {
		// The insert already succeeded; the submit contract holds.
		w.log.WithError(err).WithField("request_id", request.ID.String()).
			Warn("admin notification failed")
	}

	return request.ID, nil
}

// Process transitions a pending request to processed: a replacement
// credential is rotated through the identity provider, then the request
// is marked processed by the given administrator.
//
// An identity-provider failure leaves the request pending so the call is
// safely retryable. Processing is not idempotent: a second call on an
// already-terminal request returns a conflict.
func (w *Workflow) Process(ctx context.Context, requestID, processedBy string) (*ResetRequest, error) {
	id, adminID, err := parseIDs(requestID, processedBy)
	if err != nil {
		return nil, err
	}

	request, err := w.store.GetRequest(ctx, id)
	if err != nil {
		return nil, storeError("request fetch", err)
	}
	if request.Status != StatusPending {
		return nil, &ConflictError{RequestID: requestID, Status: request.Status}
	}

	if request.UserID != nil {
		credential, err := w.newCredential()
		if err != nil {
			return nil, &UpstreamError{Op: "credential generation", Err: err}
		}
		if err := w.identity.UpdateCredential(ctx, *request.UserID, credential); err != nil {
			w.log.WithError(err).WithField("request_id", requestID).
				Error("identity provider rejected credential rotation")
			return nil, &UpstreamError{Op: "credential rotation", Err: err}
		}
	}

	return w.finalize(ctx, request, StatusProcessed, adminID)
}

// Reject transitions a pending request to rejected without contacting the
// identity provider. The reason, if given, goes to the notifier log only;
// it is not part of the stored record.
func (w *Workflow) Reject(ctx context.Context, requestID, processedBy, reason string) (*ResetRequest, error) {
	id, adminID, err := parseIDs(requestID, processedBy)
	if err != nil {
		return nil, err
	}

	request, err := w.store.GetRequest(ctx, id)
	if err != nil {
		return nil, storeError("request fetch", err)
	}
	if request.Status != StatusPending {
		return nil, &ConflictError{RequestID: requestID, Status: request.Status}
	}

	if reason != "" {
		w.log.WithFields(map[string]interface{}{
			"request_id": requestID,
			"reason":     reason,
		}).Info("reset request rejected")
	}

	return w.finalize(ctx, request, StatusRejected, adminID)
}

// List returns requests in the given state for the admin console
func (w *Workflow) List(ctx context.Context, status Status) ([]*ResetRequest, error) {
	switch status {
	case StatusPending, StatusProcessed, StatusRejected:
	default:
		return nil, &ValidationError{Field: "status", Reason: "must be pending, processed, or rejected"}
	}

	requests, err := w.store.ListRequestsByStatus(ctx, status)
	if err != nil {
		return nil, storeError("request list", err)
	}
	return requests, nil
}

// finalize performs the atomic conditional transition and resolves a lost
// race into a conflict rather than a second success.
func (w *Workflow) finalize(ctx context.Context, request *ResetRequest, to Status, adminID uuid.UUID) (*ResetRequest, error) {
	processedAt := w.now()
	transitioned, err := w.store.TransitionRequest(ctx, request.ID, to, adminID, processedAt)
	if err != nil {
		return nil, storeError("request transition", err)
	}
	if !transitioned {
		current, err := w.store.GetRequest(ctx, request.ID)
		if err != nil {
			return nil, storeError("request re-fetch", err)
		}
		return nil, &ConflictError{RequestID: request.ID.String(), Status: current.Status}
	}

	request.Status = to
	request.ProcessedBy = &adminID
	request.ProcessedAt = &processedAt
	return request, nil
}

func parseIDs(requestID, processedBy string) (uuid.UUID, uuid.UUID, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return uuid.Nil, uuid.Nil, &ValidationError{Field: "requestId", Reason: "must be a valid UUID"}
	}
	adminID, err := uuid.Parse(processedBy)
	if err != nil {
		return uuid.Nil, uuid.Nil, &ValidationError{Field: "processedBy", Reason: "must be a valid UUID"}
	}
	return id, adminID, nil
}

func storeError(op string, err error) error {
	if err == ErrStoreNotInitialized || IsNotFound(err) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}

// normalizeEmail trims, lowercases, and validates the address shape.
// Validation happens before any store access or rate-counter success path.
func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", &ValidationError{Field: "email", Reason: "is required"}
	}

	at := strings.Index(normalized, "@")
	if at <= 0 || at != strings.LastIndex(normalized, "@") || at == len(normalized)-1 {
		return "", &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	domain := normalized[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	return normalized, nil
}

// generateCredential produces a URL-safe replacement credential from
// crypto/rand entropy.
func generateCredential() (string, error) {
	buf := make([]byte, credentialBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate credential entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
