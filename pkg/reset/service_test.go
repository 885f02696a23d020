package reset

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgkit/gatehouse/pkg/observability"
)

// fakeStore is an in-memory Store for workflow tests
type fakeStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*ResetRequest
	users    map[string]*User

	createErr     error
	findErr       error
	transitionErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests: make(map[uuid.UUID]*ResetRequest),
		users:    make(map[string]*User),
	}
}

func (s *fakeStore) CreateRequest(ctx context.Context, req *ResetRequest) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *req
	s.requests[req.ID] = &copied
	return nil
}

func (s *fakeStore) GetRequest(ctx context.Context, id uuid.UUID) (*ResetRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, &NotFoundError{RequestID: id.String()}
	}
	copied := *req
	return &copied, nil
}

func (s *fakeStore) TransitionRequest(ctx context.Context, id uuid.UUID, to Status, processedBy uuid.UUID, processedAt time.Time) (bool, error) {
	if s.transitionErr != nil {
		return false, s.transitionErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || req.Status != StatusPending {
		return false, nil
	}
	req.Status = to
	req.ProcessedBy = &processedBy
	req.ProcessedAt = &processedAt
	return true, nil
}

func (s *fakeStore) ListRequestsByStatus(ctx context.Context, status Status) ([]*ResetRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ResetRequest
	for _, req := range s.requests {
		if req.Status == status {
			copied := *req
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeStore) FindActiveUserByEmail(ctx context.Context, email string) (*User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

// fakeIdentity records credential rotations
type fakeIdentity struct {
	mu        sync.Mutex
	rotations []uuid.UUID
	err       error
}

func (f *fakeIdentity) UpdateCredential(ctx context.Context, userID uuid.UUID, newCredential string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.rotations = append(f.rotations, userID)
	f.mu.Unlock()
	return nil
}

// recordingNotifier captures emitted events
type recordingNotifier struct {
	mu     sync.Mutex
	events []RequestSubmitted
	err    error
}

func (n *recordingNotifier) NotifySubmitted(ctx context.Context, event RequestSubmitted) error {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
	return n.err
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func newTestWorkflow(store *fakeStore, identity *fakeIdentity, notifier Notifier) *Workflow {
	return NewWorkflow(store, identity, notifier, testLogger())
}

func TestSubmit_KnownUser(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	store.users["jane.doe@example.com"] = &User{ID: userID, Email: "jane.doe@example.com", Name: "Jane Doe"}
	notifier := &recordingNotifier{}
	w := newTestWorkflow(store, &fakeIdentity{}, notifier)

	id, err := w.Submit(context.Background(), "  Jane.Doe@Example.COM ")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	stored := store.requests[id]
	require.NotNil(t, stored)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, "jane.doe@example.com", stored.UserEmail, "email is trimmed and lowercased")
	require.NotNil(t, stored.UserID)
	assert.Equal(t, userID, *stored.UserID)
	assert.Nil(t, stored.ProcessedBy)
	assert.Nil(t, stored.ProcessedAt)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, id, notifier.events[0].RequestID)
	assert.True(t, notifier.events[0].UserMatched)
}

func TestSubmit_UnknownEmailStillCreatesRequest(t *testing.T) {
	store := newFakeStore()
	w := newTestWorkflow(store, &fakeIdentity{}, &recordingNotifier{})

	id, err := w.Submit(context.Background(), "nobody@example.com")
	require.NoError(t, err, "submit must not reveal whether the email is registered")

	stored := store.requests[id]
	require.NotNil(t, stored)
	assert.Nil(t, stored.UserID, "no match means user_id stays null")
	assert.Equal(t, StatusPending, stored.Status)
}

func TestSubmit_InvalidEmailFailsBeforeStore(t *testing.T) {
	tests := []string{"", "   ", "bad-email", "@example.com", "user@", "user@nodot", "a@b@c.com", "user@.com", "user@com."}

	for _, email := range tests {
		t.Run(email, func(t *testing.T) {
			store := newFakeStore()
			// A store error would surface if lookup were reached.
			store.findErr = errors.New("lookup must not run")
			w := newTestWorkflow(store, &fakeIdentity{}, &recordingNotifier{})

			_, err := w.Submit(context.Background(), email)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
			assert.Empty(t, store.requests)
		})
	}
}

func TestSubmit_NotifierFailureDoesNotFailSubmit(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	w := newTestWorkflow(store, &fakeIdentity{}, notifier)

	id, err := w.Submit(context.Background(), "user@example.com")
	require.NoError(t, err, "the insert succeeded; the submit contract holds")
	assert.NotNil(t, store.requests[id])
}

func TestSubmit_StoreNotInitialized(t *testing.T) {
	store := newFakeStore()
	store.findErr = ErrStoreNotInitialized
	w := newTestWorkflow(store, &fakeIdentity{}, &recordingNotifier{})

	_, err := w.Submit(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, ErrStoreNotInitialized)
}

func submitPending(t *testing.T, w *Workflow, store *fakeStore, email string, withUser bool) uuid.UUID {
	t.Helper()
	if withUser {
		store.users[email] = &User{ID: uuid.New(), Email: email, Name: "Test User"}
	}
	id, err := w.Submit(context.Background(), email)
	require.NoError(t, err)
	return id
}

func TestProcess_HappyPath(t *testing.T) {
	store := newFakeStore()
	identity := &fakeIdentity{}
	w := newTestWorkflow(store, identity, &recordingNotifier{})
	id := submitPending(t, w, store, "user@example.com", true)
	adminID := uuid.New()

	processed, err := w.Process(context.Background(), id.String(), adminID.String())
	require.NoError(t, err)

	assert.Equal(t, StatusProcessed, processed.Status)
	require.NotNil(t, processed.ProcessedBy)
	assert.Equal(t, adminID, *processed.ProcessedBy)
	assert.NotNil(t, processed.ProcessedAt)
	assert.Len(t, identity.rotations, 1, "exactly one credential rotation")

	stored := store.requests[id]
	assert.Equal(t, StatusProcessed, stored.Status)
}

func TestProcess_TwiceYieldsConflict(t *testing.T) {
	store := newFakeStore()
	w := newTestWorkflow(store, &fakeIdentity{}, &recordingNotifier{})
	id := submitPending(t, w, store, "user@example.com", true)
	adminID := uuid.New().String()

	_, err := w.Process(context.Background(), id.String(), adminID)
	require.NoError(t, err)

	_, err = w.Process(context.Background(), id.String(), adminID)
	assert.True(t, IsConflict(err), "second process must conflict, got %v", err)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, StatusProcessed, conflict.Status)
}

func TestProcess_MalformedIDs(t *testing.T) {
	store := newFakeStore()
	w := newTestWorkflow(store, &fakeIdentity{}, &recordingNotifier{})

	_, err := w.Process(context.Background(), "not-a-uuid", uuid.New().String())
	assert.True(t, IsValidation(err))

	_, err = w.Process(context.Background(), uuid.New().String(), "also-not-a-uuid")
	assert.True(t, IsValidation(err))
}

func TestProcess_NotFound(t *testing.T) {
	store := newFakeStore()
	w := newTestWorkflow(store, &fakeIdentity{}, &recordingNotifier{})

	_, err := w.Process(context.Background(), uuid.New().String(), uuid.New().String())
	assert.True(t, IsNotFound(err))
}

func TestProcess_IdentityFailureLeavesPending(t *testing.T) {
	store := newFakeStore()
	identity := &fakeIdentity{err: errors.New("provider timeout")}
	w := newTestWorkflow(store, identity, &recordingNotifier{})
	id := submitPending(t, w, store, "user@example.com", true)

	_, err := w.Process(context.Background(), id.String(), uuid.New().String())
	assert.True(t, IsUpstream(err))

	stored := store.requests[id]
	assert.Equal(t, StatusPending, stored.Status, "no partial transition on provider failure")
	assert.Nil(t, stored.ProcessedBy)

	// The operation is retryable once the provider recovers.
	identity.err = nil
	processed, err := w.Process(context.Background(), id.String(), uuid.New().String())
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, processed.Status)
}

func TestProcess_UnmatchedRequestSkipsProvider(t *testing.T) {
	store := newFakeStore()
	identity := &fakeIdentity{err: errors.New("must not be called")}
	w := newTestWorkflow(store, identity, &recordingNotifier{})
	id := submitPending(t, w, store, "ghost@example.com", false)

	processed, err := w.Process(context.Background(), id.String(), uuid.New().String())
	require.NoError(t, err, "requests without a matched user have no credential to rotate")
	assert.Equal(t, StatusProcessed, processed.Status)
}

func TestProcess_LostRaceBecomesConflict(t *testing.T) {
	store := newFakeStore()
	w := newTestWorkflow(store, &fakeIdentity{}, &recordingNotifier{})
	id := submitPending(t, w, store, "user@example.com", true)

	// Another processor wins between the fetch and the transition.
	w.newCredential = func() (string, error) {
		store.mu.Lock()
		req := store.requests[id]
		req.Status = StatusRejected
		store.mu.Unlock()
		return "credential", nil
	}

	_, err := w.Process(context.Background(), id.String(), uuid.New().String())
	assert.True(t, IsConflict(err))
}

func TestReject_HappyPath(t *testing.T) {
	store := newFakeStore()
	identity := &fakeIdentity{err: errors.New("must not be called")}
	w := newTestWorkflow(store, identity, &recordingNotifier{})
	id := submitPending(t, w, store, "user@example.com", true)
	adminID := uuid.New()

	rejected, err := w.Reject(context.Background(), id.String(), adminID.String(), "request looked suspicious")
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, rejected.Status)
	require.NotNil(t, rejected.ProcessedBy)
	assert.Equal(t, adminID, *rejected.ProcessedBy)
	assert.Empty(t, identity.rotations, "reject never contacts the identity provider")
}

func TestReject_TerminalYieldsConflict(t *testing.T) {
	store := newFakeStore()
	w := newTestWorkflow(store, &fakeIdentity{}, &recordingNotifier{})
	id := submitPending(t, w, store, "user@example.com", true)

	_, err := w.Reject(context.Background(), id.String(), uuid.New().String(), "")
	require.NoError(t, err)

	_, err = w.Process(context.Background(), id.String(), uuid.New().String())
	assert.True(t, IsConflict(err), "rejected requests cannot be processed afterwards")
}

func TestList(t *testing.T) {
	store := newFakeStore()
	w := newTestWorkflow(store, &fakeIdentity{}, &recordingNotifier{})
	submitPending(t, w, store, "a@example.com", false)
	id := submitPending(t, w, store, "b@example.com", true)

	_, err := w.Process(context.Background(), id.String(), uuid.New().String())
	require.NoError(t, err)

	pending, err := w.List(context.Background(), StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	processed, err := w.List(context.Background(), StatusProcessed)
	require.NoError(t, err)
	assert.Len(t, processed, 1)

	_, err = w.List(context.Background(), Status("bogus"))
	assert.True(t, IsValidation(err))
}

func TestGenerateCredential(t *testing.T) {
	first, err := generateCredential()
	require.NoError(t, err)
	second, err := generateCredential()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.GreaterOrEqual(t, len(first), 40, "32 bytes of entropy base64url encoded")
	assert.NotContains(t, first, "+")
	assert.NotContains(t, first, "/")
}
