package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PostgresStore persists audit events in the pp_audit_events table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store. The pgx
// database/sql driver must be registered (see platform/database).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO pp_audit_events (
			id, occurred_at, subject, client_id, action,
			policy_key, bundle_key, decision, reason, screens,
			device, ip_prefix, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	eventID, err := uuid.Parse(event.ID)
	if err != nil {
		eventID = uuid.New()
	}
	_, err = s.db.ExecContext(ctx, query,
		eventID,
		event.Timestamp,
		event.Subject,
		event.ClientID,
		string(event.Action),
		event.PolicyKey,
		event.BundleKey,
		event.Decision,
		event.Reason,
		strings.Join(event.Screens, ","),
		event.Device,
		event.IPPrefix,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns the subject's events oldest first.
func (s *PostgresStore) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	query := `
		SELECT id, occurred_at, subject, client_id, action,
			   policy_key, bundle_key, decision, reason, screens,
			   device, ip_prefix, request_id
		FROM pp_audit_events
		WHERE subject = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			id      uuid.UUID
			action  string
			screens string
		)
		if err := rows.Scan(&id, &e.Timestamp, &e.Subject, &e.ClientID, &action,
			&e.PolicyKey, &e.BundleKey, &e.Decision, &e.Reason, &screens,
			&e.Device, &e.IPPrefix, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.ID = id.String()
		e.Action = Action(action)
		if screens != "" {
			e.Screens = strings.Split(screens, ",")
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*InMemoryStore)(nil)
)
