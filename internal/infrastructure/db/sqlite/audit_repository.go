package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/smartsprint/smartsprint/internal/core/domain"
)

// AuditRepository appends auth events to the auth_events table.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) SaveEvent(ctx context.Context, e domain.AuthEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_events (type, user_id, email, actor_id, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		string(e.Type), e.UserID, e.Email, e.ActorID, e.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

// EventsForUser returns the events recorded for userID, oldest first.
func (r *AuditRepository) EventsForUser(ctx context.Context, userID string) ([]domain.AuthEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, user_id, email, actor_id, occurred_at FROM auth_events WHERE user_id = ? ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query auth events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuthEvent
	for rows.Next() {
		var (
			e   domain.AuthEvent
			typ string
		)
		if err := rows.Scan(&typ, &e.UserID, &e.Email, &e.ActorID, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan auth event: %w", err)
		}
		e.Type = domain.AuthEventType(typ)
		events = append(events, e)
	}
	return events, rows.Err()
}
