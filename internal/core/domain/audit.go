package domain

import "time"

// AuthEventType names an entry in the auth audit trail.
type AuthEventType string

const (
	EventRegistered      AuthEventType = "registered"
	EventLoginSucceeded  AuthEventType = "login_succeeded"
	EventLoginFailed     AuthEventType = "login_failed"
	EventUserCreated     AuthEventType = "user_created"
	EventUserUpdated     AuthEventType = "user_updated"
	EventUserDeleted     AuthEventType = "user_deleted"
	EventPasswordChanged AuthEventType = "password_changed"
)

// AuthEvent records something that happened to an account.
// ActorID is empty for anonymous actions (register, failed login).
type AuthEvent struct {
	Type       AuthEventType
	UserID     string
	Email      string
	ActorID    string
	OccurredAt time.Time
}

// ShardKey groups events that must be persisted in order.
func (e AuthEvent) ShardKey() string {
	if e.UserID != "" {
		return e.UserID
	}
	return e.Email
}
