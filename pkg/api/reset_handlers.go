package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/orgkit/gatehouse/pkg/audit"
	"github.com/orgkit/gatehouse/pkg/httputil"
	"github.com/orgkit/gatehouse/pkg/middleware"
	"github.com/orgkit/gatehouse/pkg/observability"
	"github.com/orgkit/gatehouse/pkg/reset"
)

// ResetHandlers serves the credential-reset surface
type ResetHandlers struct {
	workflow *reset.Workflow
	log      *observability.Logger
	metrics  *observability.Metrics
	audit    audit.Logger
}

// NewResetHandlers creates handlers for the reset workflow. Metrics and
// audit logger may be nil.
func NewResetHandlers(workflow *reset.Workflow, log *observability.Logger, metrics *observability.Metrics, auditLogger audit.Logger) *ResetHandlers {
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &ResetHandlers{
		workflow: workflow,
		log:      log,
		metrics:  metrics,
		audit:    auditLogger,
	}
}

// ForgotPasswordRequest is the anonymous initiation body
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordResponse acknowledges a submission without revealing
// whether the email matched a user.
type ForgotPasswordResponse struct {
	RequestID uuid.UUID `json:"requestId"`
	Message   string    `json:"message"`
}

// ResetPasswordRequest is the administrative approval body
type ResetPasswordRequest struct {
	RequestID   string `json:"requestId"`
	ProcessedBy string `json:"processedBy"`
}

// RejectRequest is the administrative rejection body
type RejectRequest struct {
	ProcessedBy string `json:"processedBy"`
	Reason      string `json:"reason,omitempty"`
}

// ListResponse wraps an administrative listing
type ListResponse struct {
	Requests []*reset.ResetRequest `json:"requests"`
	Count    int                   `json:"count"`
}

// forgotPassword handles POST /forgot-password
func (h *ResetHandlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	requestID, err := h.workflow.Submit(r.Context(), req.Email)
	if err != nil {
		h.writeWorkflowError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ResetSubmittedTotal.Inc()
	}
	h.recordEvent(r, audit.EventTypeResetSubmitted, audit.EventStatusSuccess, requestID.String())

	_ = httputil.WriteSuccess(w, ForgotPasswordResponse{
		RequestID: requestID,
		Message:   "if the email is registered, a reset request has been created",
	})
}

// resetPassword handles POST /reset-password
func (h *ResetHandlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.ProcessedBy == "" {
		req.ProcessedBy = principalID(r)
	}

	request, err := h.workflow.Process(r.Context(), req.RequestID, req.ProcessedBy)
	if err != nil {
		h.writeWorkflowError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ResetTransitionsTotal.WithLabelValues(string(reset.StatusProcessed)).Inc()
	}
	h.recordEvent(r, audit.EventTypeResetProcessed, audit.EventStatusSuccess, request.ID.String())

	_ = httputil.WriteSuccess(w, request)
}

// rejectRequest handles POST /reset-requests/{id}/reject
func (h *ResetHandlers) rejectRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.ProcessedBy == "" {
		req.ProcessedBy = principalID(r)
	}

	request, err := h.workflow.Reject(r.Context(), requestID, req.ProcessedBy, req.Reason)
	if err != nil {
		h.writeWorkflowError(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ResetTransitionsTotal.WithLabelValues(string(reset.StatusRejected)).Inc()
	}
	h.recordEvent(r, audit.EventTypeResetRejected, audit.EventStatusSuccess, request.ID.String())

	_ = httputil.WriteSuccess(w, request)
}

// listRequests handles GET /reset-requests?status=...
func (h *ResetHandlers) listRequests(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(reset.StatusPending)
	}

	requests, err := h.workflow.List(r.Context(), reset.Status(status))
	if err != nil {
		h.writeWorkflowError(w, r, err)
		return
	}

	_ = httputil.WriteSuccess(w, ListResponse{
		Requests: requests,
		Count:    len(requests),
	})
}

// writeWorkflowError maps typed workflow errors onto the error envelope.
// Store and upstream failures are logged in full but surfaced generically.
func (h *ResetHandlers) writeWorkflowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case reset.IsValidation(err):
		httputil.WriteValidationError(w, err.Error())
	case reset.IsNotFound(err):
		httputil.WriteNotFound(w, err.Error())
	case reset.IsConflict(err):
		httputil.WriteConflict(w, err.Error())
	case errors.Is(err, reset.ErrStoreNotInitialized):
		h.log.WithError(err).Error("reset store not initialized")
		httputil.WriteErrorEnvelope(w, http.StatusInternalServerError,
			httputil.CodeStoreNotInitialized,
			"reset storage is not initialized; run the schema migrations")
	case reset.IsUpstream(err):
		h.log.WithError(err).WithField("path", r.URL.Path).Error("upstream dependency failed")
		if h.metrics != nil {
			h.metrics.ResetUpstreamFailures.Inc()
		}
		httputil.WriteUpstreamError(w)
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("reset workflow failed")
		httputil.WriteInternalError(w)
	}
}

func (h *ResetHandlers) recordEvent(r *http.Request, eventType audit.EventType, status audit.EventStatus, resourceID string) {
	event := audit.NewEvent(eventType, status).WithResource(resourceID)
	if principal := middleware.GetPrincipal(r); principal != nil {
		event = event.WithActor(principal.ID)
	}
	if err := h.audit.Log(r.Context(), event); err != nil {
		h.log.WithError(err).Warn("failed to record security event")
	}
}

// principalID returns the authenticated caller's id, or empty for
// anonymous requests.
func principalID(r *http.Request) string {
	if principal := middleware.GetPrincipal(r); principal != nil {
		return principal.ID.String()
	}
	return ""
}

// RegisterRoutes wires the reset surface onto the router. The caller
// supplies the middleware chains so route policy stays in one place.
func (h *ResetHandlers) RegisterRoutes(router *mux.Router, anonymous, admin func(http.Handler) http.Handler) {
	router.Handle("/forgot-password",
		anonymous(http.HandlerFunc(h.forgotPassword))).Methods("POST")
	router.Handle("/reset-password",
		admin(http.HandlerFunc(h.resetPassword))).Methods("POST")
	router.Handle("/reset-requests/{id}/reject",
		admin(http.HandlerFunc(h.rejectRequest))).Methods("POST")
	router.Handle("/reset-requests",
		admin(http.HandlerFunc(h.listRequests))).Methods("GET")
}
