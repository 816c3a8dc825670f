package domain

import "time"

// TokenClaims is the decoded content of a verified access token.
type TokenClaims struct {
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
