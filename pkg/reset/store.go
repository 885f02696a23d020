package reset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store is the persistence seam of the workflow. Retention of terminal
// requests is an external store concern; this interface never deletes.
type Store interface {
	// CreateRequest inserts a new pending request.
	CreateRequest(ctx context.Context, req *ResetRequest) error
	// GetRequest fetches a request by id. Returns *NotFoundError if absent.
	GetRequest(ctx context.Context, id uuid.UUID) (*ResetRequest, error)
	// TransitionRequest marks a pending request terminal. The update is a
	// single atomic conditional write (transition only if the current
	// status is pending); transitioned=false means the row was missing or
	// already terminal.
	TransitionRequest(ctx context.Context, id uuid.UUID, to Status, processedBy uuid.UUID, processedAt time.Time) (transitioned bool, err error)
	// ListRequestsByStatus returns requests in the given state, newest first.
	ListRequestsByStatus(ctx context.Context, status Status) ([]*ResetRequest, error)
	// FindActiveUserByEmail returns the active user with the given
	// normalized email, or nil if none exists.
	FindActiveUserByEmail(ctx context.Context, email string) (*User, error)
}

// SQLStore implements Store over database/sql. Queries use ordinal
// placeholders and bind timestamps from Go, so the same store runs on
// PostgreSQL in production and SQLite in development.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a store over an open database handle
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// CreateRequest inserts a new pending request
func (s *SQLStore) CreateRequest(ctx context.Context, req *ResetRequest) error {
	query := `
		INSERT INTO reset_requests (id, user_id, user_email, user_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var userID interface{}
	if req.UserID != nil {
		userID = req.UserID.String()
	}
	var userName interface{}
	if req.UserName != nil {
		userName = *req.UserName
	}

	_, err := s.db.ExecContext(ctx, query,
		req.ID.String(), userID, req.UserEmail, userName, string(req.Status), req.CreatedAt)
	if err != nil {
		if isUndefinedTable(err) {
			return ErrStoreNotInitialized
		}
		return fmt.Errorf("failed to insert reset request: %w", err)
	}
	return nil
}

// GetRequest fetches a request by id
func (s *SQLStore) GetRequest(ctx context.Context, id uuid.UUID) (*ResetRequest, error) {
	query := `
		SELECT id, user_id, user_email, user_name, status, processed_by, created_at, processed_at
		FROM reset_requests
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, id.String())
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{RequestID: id.String()}
	}
	if err != nil {
		if isUndefinedTable(err) {
			return nil, ErrStoreNotInitialized
		}
		return nil, err
	}
	return req, nil
}

// scanRequest scans a reset request from a database row
func scanRequest(scanner interface {
	Scan(dest ...interface{}) error
}) (*ResetRequest, error) {
	req := &ResetRequest{}
	var (
		rawID       string
		userID      sql.NullString
		userName    sql.NullString
		status      string
		processedBy sql.NullString
		processedAt sql.NullTime
	)

	err := scanner.Scan(
		&rawID, &userID, &req.UserEmail, &userName, &status, &processedBy, &req.CreatedAt, &processedAt)
	if err != nil {
		return nil, err
	}

	req.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored request id is not a uuid: %w", err)
	}
	req.Status = Status(status)
	if userID.Valid {
		parsed, err := uuid.Parse(userID.String)
		if err != nil {
			return nil, fmt.Errorf("stored user id is not a uuid: %w", err)
		}
		req.UserID = &parsed
	}
	if userName.Valid {
		name := userName.String
		req.UserName = &name
	}
	if processedBy.Valid {
		parsed, err := uuid.Parse(processedBy.String)
		if err != nil {
			return nil, fmt.Errorf("stored processor id is not a uuid: %w", err)
		}
		req.ProcessedBy = &parsed
	}
	if processedAt.Valid {
		at := processedAt.Time
		req.ProcessedAt = &at
	}
	return req, nil
}

// TransitionRequest marks a pending request terminal
func (s *SQLStore) TransitionRequest(ctx context.Context, id uuid.UUID, to Status, processedBy uuid.UUID, processedAt time.Time) (bool, error) {
	if !to.Terminal() {
		return false, fmt.Errorf("cannot transition to non-terminal status %q", to)
	}

	query := `
		UPDATE reset_requests
		SET status = $1, processed_by = $2, processed_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		string(to), processedBy.String(), processedAt, id.String(), string(StatusPending))
	if err != nil {
		if isUndefinedTable(err) {
			return false, ErrStoreNotInitialized
		}
		return false, fmt.Errorf("failed to transition reset request: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

// ListRequestsByStatus returns requests in the given state, newest first
func (s *SQLStore) ListRequestsByStatus(ctx context.Context, status Status) ([]*ResetRequest, error) {
	query := `
		SELECT id, user_id, user_email, user_name, status, processed_by, created_at, processed_at
		FROM reset_requests
		WHERE status = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		if isUndefinedTable(err) {
			return nil, ErrStoreNotInitialized
		}
		return nil, fmt.Errorf("failed to list reset requests: %w", err)
	}
	defer rows.Close()

	var requests []*ResetRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// FindActiveUserByEmail returns the active user for the email, or nil
func (s *SQLStore) FindActiveUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, name
		FROM users
		WHERE email = $1 AND is_active = true
	`
	var (
		rawID string
		user  User
	)
	err := s.db.QueryRowContext(ctx, query, email).Scan(&rawID, &user.Email, &user.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isUndefinedTable(err) {
			return nil, ErrStoreNotInitialized
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored user id is not a uuid: %w", err)
	}
	return &user, nil
}

// pqUndefinedTable is the postgres error code for a relation that does
// not exist (undefined_table).
const pqUndefinedTable = "42P01"

func isUndefinedTable(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code) == pqUndefinedTable
	}
	// SQLite has no error codes on the driver error type we see here.
	return strings.Contains(err.Error(), "no such table")
}
